// Package scheduler implements the compiler's job scheduler (§4.1, §5): a
// single-threaded cooperative work queue of suspendable resolution tasks
// that is driven to fixpoint. Each job kind (ResolveDeclaration,
// TypeStaticIf, TypeFunctionBody, TypeStaticVariable, TypePolymorphicFunction,
// GenerateFunction, GenerateStaticVariable) is registered as a StepFunc that
// the scheduler may call any number of times; a step either finishes with a
// value, fails, or yields a dependency on another job (the "delayed-result"
// control flow of the DESIGN NOTES §9). Rather than storing an explicit
// continuation, a suspended job is simply re-run from the top on its next
// turn — cheap because every sub-lookup it performs along the way is itself
// a memoized job whose Done result returns instantly.
package scheduler

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/vela-lang/velac/lang/diag"
	"github.com/vela-lang/velac/lang/token"
)

// JobID identifies a job by its stable index into the scheduler's job table.
type JobID int

// State is a job's position in the §4.1 state machine:
// Waiting → Running → (Done | Failed | Waiting-on-other).
type State int

const (
	Waiting State = iota
	Running
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is what a StepFunc returns for a single turn: the job's outcome
// (Ok/Fail) or a suspension naming the job it now depends on (WaitOn).
type Result struct {
	State State
	Value any
	Err   error
	Dep   JobID
}

// Ok completes a job successfully with value v.
func Ok(v any) Result { return Result{State: Done, Value: v} }

// Fail completes a job with a terminal error.
func Fail(err error) Result { return Result{State: Failed, Err: err} }

// WaitOn suspends the running job on dep; the scheduler resumes it (by
// calling its StepFunc again) once dep reaches Done or Failed.
func WaitOn(dep JobID) Result { return Result{State: Waiting, Dep: dep} }

// Suspended is the error Await returns in place of a value when the
// dependency it was asked about has not settled yet. Since a checker method
// such as CheckExpr returns a plain (value, error) pair rather than a
// scheduler.Result, this is how a suspension deep inside an expression walk
// is threaded back up to the job step that must itself suspend: every
// intermediate "if err != nil { return nil, err }" passes it through
// unexamined, and the step function's boundary converts it back into a
// WaitOn via FailOrWait instead of a terminal failure (DESIGN NOTES §9's
// "delayed-result" control flow).
type Suspended struct{ Dep JobID }

func (e *Suspended) Error() string { return fmt.Sprintf("suspended on job %d", e.Dep) }

// FailOrWait converts err into the right Result for a job step boundary: a
// Suspended error resumes the suspension it carries, anything else is a
// terminal Failed.
func FailOrWait(err error) Result {
	if s, ok := err.(*Suspended); ok {
		return WaitOn(s.Dep)
	}
	return Fail(err)
}

// StepFunc is one job's resumable unit of work. s is the owning Scheduler,
// used to enqueue or look up dependency jobs.
type StepFunc func(s *Scheduler) Result

// Job is one unit of scheduled work.
type Job struct {
	ID     JobID
	Kind   string // e.g. "ResolveDeclaration", "TypeFunctionBody"
	Name   string // declaration name / description, for CycleError reporting
	Pos    token.Position
	state  State
	result any
	err    error
	dep    JobID
	ran    bool
	step   StepFunc
}

// State reports j's current position in the state machine.
func (j *Job) State() State { return j.state }

// Scheduler drives a set of Jobs to fixpoint (§4.1, §5). It is single-
// threaded and cooperative: only one job step runs at a time, suspension
// happens only at explicit dependency points, and the scheduler is free to
// choose any schedule that eventually runs every ready job.
type Scheduler struct {
	jobs  []*Job
	memo  map[string]JobID
	sink  *diag.Sink
}

// New creates an empty Scheduler. Diagnostics for CycleError (and any errors
// a caller wants to funnel through the same sink) are recorded in sink.
func New(sink *diag.Sink) *Scheduler {
	return &Scheduler{memo: make(map[string]JobID), sink: sink}
}

// Enqueue registers a new job and returns its ID. If key is non-empty and a
// job with that key already exists, its existing ID is returned instead and
// step is discarded — this is the memoisation §4.1 requires for
// ResolveDeclaration(scope, name) and for polymorph instantiation keyed by
// (declaration, argument_type_tuple, argument_constant_tuple).
func (s *Scheduler) Enqueue(kind, key, name string, pos token.Position, step StepFunc) JobID {
	if key != "" {
		if id, ok := s.memo[key]; ok {
			return id
		}
	}
	id := JobID(len(s.jobs))
	s.jobs = append(s.jobs, &Job{ID: id, Kind: kind, Name: name, Pos: pos, step: step})
	if key != "" {
		s.memo[key] = id
	}
	return id
}

// Job returns the job registered under id.
func (s *Scheduler) Job(id JobID) *Job { return s.jobs[id] }

// Peek reports id's current state and, if Done, its value; if Failed, its
// stored error. It never runs the job — callers that need a value use
// WaitOn to suspend until the scheduler has driven id to completion.
func (s *Scheduler) Peek(id JobID) (State, any, error) {
	j := s.jobs[id]
	return j.state, j.result, j.err
}

// Run drives every registered job (including ones enqueued by other jobs'
// steps as they run) to fixpoint. It returns a CycleError-carrying error if
// any job remains Waiting once no further progress can be made; otherwise
// nil, even if individual jobs Failed (failures are per-declaration and are
// reported through the diag.Sink supplied to New, per §4.7 "best-effort
// multi-error reporting").
func (s *Scheduler) Run() error {
	for {
		progressed := false
		// iterate by index, not range, since steps may append new jobs.
		for i := 0; i < len(s.jobs); i++ {
			j := s.jobs[i]
			if j.state == Done || j.state == Failed {
				continue
			}
			// A job that has already suspended once only gets re-run once its
			// recorded dependency has itself settled (Done or Failed); a job
			// on its first turn has no recorded dependency yet and always runs.
			if j.ran {
				dj := s.jobs[j.dep]
				if dj.state != Done && dj.state != Failed {
					continue
				}
			}
			wasRun := j.ran
			j.state = Running
			res := j.step(s)
			j.ran = true
			switch res.State {
			case Done:
				j.state = Done
				j.result = res.Value
				progressed = true
			case Failed:
				j.state = Failed
				j.err = res.Err
				progressed = true
			default: // Waiting
				j.state = Waiting
				j.dep = res.Dep
				progressed = progressed || !wasRun
			}
		}
		if !progressed {
			break
		}
	}
	return s.cycleError()
}

func (s *Scheduler) cycleError() error {
	var waiting []JobID
	for _, j := range s.jobs {
		if j.state == Waiting {
			waiting = append(waiting, j.ID)
		}
	}
	if len(waiting) == 0 {
		return nil
	}
	slices.SortFunc(waiting, func(a, b JobID) int { return int(a - b) })
	names := make(map[string]bool, len(waiting))
	for _, id := range waiting {
		names[s.jobs[id].Name] = true
	}
	list := maps.Keys(names)
	slices.Sort(list)
	first := s.jobs[waiting[0]]
	s.sink.Add(diag.Diagnostic{
		Kind: diag.CycleError,
		Pos:  first.Pos,
		Msg:  fmt.Sprintf("cycle detected among: %v", list),
		Decl: first.Name,
	})
	return s.sink.Err()
}

// Await is a convenience used from inside a StepFunc: it returns the cached
// value of dep if Done, re-suspends the current job on dep if dep is not yet
// settled, or fails the current job if dep Failed.
func Await[T any](s *Scheduler, dep JobID) (T, Result, bool) {
	var zero T
	state, val, err := s.Peek(dep)
	switch state {
	case Done:
		v, _ := val.(T)
		return v, Result{}, true
	case Failed:
		return zero, Fail(err), false
	default:
		return zero, Result{State: Waiting, Dep: dep, Err: &Suspended{Dep: dep}}, false
	}
}
