package checker

import (
	"fmt"
	"strings"

	"github.com/vela-lang/velac/lang/ast"
	"github.com/vela-lang/velac/lang/token"
)

// validateTags checks a declaration's extern/no_mangle/call_conv tags for
// the conflicts and malformed argument lists §7.4's TagError covers:
//   - extern and no_mangle on the same declaration (redundant, since extern
//     already implies no mangling)
//   - call_conv on a declaration whose value is not a function literal or
//     function-pointer type
//   - an unrecognised tag name
//   - extern's argument list, each of which must be a non-empty string
//     naming an external library to link against (`extern("lib1", "lib2")`);
//     an externally-defined function with no library dependency is simply
//     `extern()`
//   - call_conv's argument list, which must be exactly one non-empty string;
//     the convention name itself is not checked against any list
func validateTags(tags []ast.Tag, value ast.Expr, name string) error {
	var hasExtern, hasNoMangle, hasCallConv bool
	for _, t := range tags {
		switch t.Name {
		case token.EXTERN:
			hasExtern = true
			for _, a := range t.Args {
				if strings.TrimSpace(a) == "" {
					return fmt.Errorf("%s: extern argument must be a non-empty library name", name)
				}
			}
		case token.NO_MANGLE:
			hasNoMangle = true
			if len(t.Args) != 0 {
				return fmt.Errorf("%s: no_mangle takes no arguments", name)
			}
		case token.CALL_CONV:
			hasCallConv = true
			if len(t.Args) != 1 {
				return fmt.Errorf("%s: call_conv takes exactly one argument", name)
			}
			if strings.TrimSpace(t.Args[0]) == "" {
				return fmt.Errorf("%s: call_conv argument must not be empty", name)
			}
		default:
			return fmt.Errorf("%s: unknown tag %q", name, t.Name)
		}
	}
	if hasExtern && hasNoMangle {
		return fmt.Errorf("%s: extern and no_mangle conflict (extern already disables mangling)", name)
	}
	if hasCallConv && !isFunctionValue(value) {
		return fmt.Errorf("%s: call_conv may only tag a function", name)
	}
	return nil
}

func isFunctionValue(e ast.Expr) bool {
	switch e.(type) {
	case *ast.FuncLitExpr, *ast.FuncTypeExpr:
		return true
	default:
		return false
	}
}

// callConvOf extracts the call_conv tag's argument, or "" if untagged.
func callConvOf(tags []ast.Tag) string {
	for _, t := range tags {
		if t.Name == token.CALL_CONV && len(t.Args) == 1 {
			return t.Args[0]
		}
	}
	return ""
}

// externLibraries extracts the extern tag's library-name arguments (§6's
// "de-duplicated list of external library names aggregated from extern(...)
// tags"). ok is false when the declaration is not tagged extern at all.
func externLibraries(tags []ast.Tag) (libs []string, ok bool) {
	for _, t := range tags {
		if t.Name == token.EXTERN {
			return t.Args, true
		}
	}
	return nil, false
}

// isNoMangle reports whether decl carries a no_mangle or extern tag, either
// of which suppresses the `_N` mangling lang/hlir's Mangler otherwise
// applies to every linkage name.
func isNoMangle(tags []ast.Tag) bool {
	for _, t := range tags {
		if t.Name == token.NO_MANGLE || t.Name == token.EXTERN {
			return true
		}
	}
	return false
}
