// Package types implements the compiler's closed type-kind hierarchy:
// AnyType (§3), the architecture size record that gives every type a size and
// alignment, and the coercion table consulted by lang/checker. Each C++
// class in the original type hierarchy becomes a small concrete Go type
// behind a marker method, matching the closed-tagged-sum pattern used by
// lang/ast for AST nodes.
package types

// Arch is the {address_size, default_integer_size, default_float_size,
// boolean_size} record a target architecture contributes to size/alignment
// computation (§3, P6). Sizes are in bytes.
type Arch struct {
	AddressSize        int
	DefaultIntegerSize int
	DefaultFloatSize   int
	BooleanSize        int
}

// Arch64 is the size record for every 64-bit target the spec's examples
// exercise (x86_64, aarch64): 8-byte pointers, 32-bit default int/float,
// 1-byte bool.
var Arch64 = Arch{AddressSize: 8, DefaultIntegerSize: 4, DefaultFloatSize: 4, BooleanSize: 1}

// Arch32 is the 32-bit equivalent.
var Arch32 = Arch{AddressSize: 4, DefaultIntegerSize: 4, DefaultFloatSize: 4, BooleanSize: 1}
