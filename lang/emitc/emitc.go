// Package emitc is the final compiler stage named but left unimplemented by
// the original program's backend boundary (§1 Non-goals: "actually invoking
// a C compiler is out of scope"): given the RuntimeStatics a build produced,
// it renders a textual placeholder translation unit and the external
// libraries that a real backend would hand to a C compiler driver, without
// generating legal C or shelling out to one.
package emitc

import (
	"fmt"
	"io"
	"sort"

	"github.com/vela-lang/velac/lang/hlir"
)

// TranslationUnit is the result of Emit: the placeholder C-shaped text plus
// the de-duplicated, sorted extern library list a real build would pass to
// clang via -l.
type TranslationUnit struct {
	Source     string
	ExternLibs []string
}

// Emit renders statics (in the order generated) into a single placeholder
// translation unit. Every RuntimeStatic gets a one-line forward declaration
// comment naming its emission symbol; function bodies are represented by
// their block count rather than lowered instruction-by-instruction, since
// turning HLIR into compilable C is the part the original backend boundary
// explicitly leaves to a real compiler invocation.
func Emit(statics []hlir.RuntimeStatic) TranslationUnit {
	var libs []string
	seen := make(map[string]bool)

	var b fmtBuffer
	b.Printf("/* generated by velac; not compilable, a placeholder for a real C backend */\n")
	b.Printf("#include <stdint.h>\n\n")

	for _, st := range statics {
		switch st := st.(type) {
		case *hlir.Function:
			emitFunction(&b, st)
			for _, lib := range st.ExternLibs {
				if !seen[lib] {
					seen[lib] = true
					libs = append(libs, lib)
				}
			}
		case *hlir.StaticConstant:
			b.Printf("/* static constant %s : %s (%d bytes) */\n", st.Name, st.Type, len(st.Bytes))
		case *hlir.StaticVariable:
			b.Printf("%s %s; /* global */\n", st.Type, st.Name)
		}
	}

	sort.Strings(libs)
	return TranslationUnit{Source: b.String(), ExternLibs: libs}
}

func emitFunction(b *fmtBuffer, fn *hlir.Function) {
	if fn.IsExternDecl {
		b.Printf("extern %s %s(/* %d params */); /* extern */\n", fn.Result, fn.Name, len(fn.Params))
		return
	}
	b.Printf("%s %s(/* %d params */) { /* %d blocks, lowering to C is a real backend's job */ }\n",
		fn.Result, fn.Name, len(fn.Params), len(fn.Blocks))
}

// WriteClangInvocation writes the shell command line a real build would run
// against tu's placeholder output — this never actually runs clang (§1
// Non-goals), it only documents the invocation the C emitter's output is
// shaped for.
func WriteClangInvocation(w io.Writer, tu TranslationUnit, sourcePath, outputPath string) error {
	cmd := fmt.Sprintf("clang -x c %s -o %s", sourcePath, outputPath)
	for _, lib := range tu.ExternLibs {
		cmd += " -l" + lib
	}
	_, err := fmt.Fprintln(w, cmd)
	return err
}

// fmtBuffer is a tiny sprintf-accumulating buffer, avoiding a bytes.Buffer
// import for what is otherwise a single Printf/String pair.
type fmtBuffer struct {
	s string
}

func (b *fmtBuffer) Printf(format string, args ...any) {
	b.s += fmt.Sprintf(format, args...)
}

func (b *fmtBuffer) String() string { return b.s }
