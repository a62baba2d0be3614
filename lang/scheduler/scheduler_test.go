package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vela-lang/velac/lang/diag"
	"github.com/vela-lang/velac/lang/token"
)

func TestRunCompletesIndependentJobs(t *testing.T) {
	s := New(&diag.Sink{})
	a := s.Enqueue("Resolve", "a", "a", token.Position{}, func(s *Scheduler) Result { return Ok(1) })
	b := s.Enqueue("Resolve", "b", "b", token.Position{}, func(s *Scheduler) Result { return Ok(2) })
	require := assert.New(t)
	require.NoError(s.Run())
	st, v, _ := s.Peek(a)
	require.Equal(Done, st)
	require.Equal(1, v)
	st, v, _ = s.Peek(b)
	require.Equal(Done, st)
	require.Equal(2, v)
}

func TestRunResolvesDependencyChain(t *testing.T) {
	s := New(&diag.Sink{})
	var b JobID
	a := s.Enqueue("Resolve", "a", "a", token.Position{}, func(s *Scheduler) Result {
		v, res, ok := Await[int](s, b)
		if !ok {
			return res
		}
		return Ok(v + 1)
	})
	b = s.Enqueue("Resolve", "b", "b", token.Position{}, func(s *Scheduler) Result { return Ok(41) })

	assert.NoError(t, s.Run())
	_, v, _ := s.Peek(a)
	assert.Equal(t, 42, v)
}

func TestRunFailsDependentJob(t *testing.T) {
	s := New(&diag.Sink{})
	var b JobID
	a := s.Enqueue("Resolve", "a", "a", token.Position{}, func(s *Scheduler) Result {
		_, res, ok := Await[int](s, b)
		if !ok {
			return res
		}
		return Ok(0)
	})
	b = s.Enqueue("Resolve", "b", "b", token.Position{}, func(s *Scheduler) Result {
		return Fail(errors.New("boom"))
	})

	assert.NoError(t, s.Run())
	st, _, err := s.Peek(a)
	assert.Equal(t, Failed, st)
	assert.Error(t, err)
}

func TestRunDetectsCycle(t *testing.T) {
	s := New(&diag.Sink{})
	var a, b JobID
	a = s.Enqueue("Resolve", "a", "a", token.Position{}, func(s *Scheduler) Result {
		_, res, ok := Await[int](s, b)
		if !ok {
			return res
		}
		return Ok(1)
	})
	b = s.Enqueue("Resolve", "b", "b", token.Position{}, func(s *Scheduler) Result {
		_, res, ok := Await[int](s, a)
		if !ok {
			return res
		}
		return Ok(1)
	})

	err := s.Run()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestEnqueueMemoizesByKey(t *testing.T) {
	s := New(&diag.Sink{})
	calls := 0
	step := func(s *Scheduler) Result { calls++; return Ok(calls) }
	a := s.Enqueue("Resolve", "x", "x", token.Position{}, step)
	b := s.Enqueue("Resolve", "x", "x", token.Position{}, step)
	assert.Equal(t, a, b)
	assert.NoError(t, s.Run())
	_, v, _ := s.Peek(a)
	assert.Equal(t, 1, v)
}
