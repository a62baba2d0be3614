package token

import "fmt"

// Position is the fully-qualified, human-readable form of a Pos: the file it
// belongs to plus the 1-based line and column. It backs FileRange (§3 of the
// spec) once a path is attached to a Pos pair.
type Position struct {
	Filename string
	Line     int
	Column   int
}

// IsValid reports whether the position has a known line and column.
func (p Position) IsValid() bool { return p.Line > 0 && p.Column > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return p.Filename
	}
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// File tracks the name and source bytes of a single source file. Unlike
// go/token.File, it does not need a line-offset table beyond what is used
// while scanning: every Pos already carries its own line and column, so
// converting a Pos to a Position only requires knowing which File it came
// from.
type File struct {
	name string
	src  []byte
}

// Name returns the file's path, as given to FileSet.AddFile.
func (f *File) Name() string { return f.name }

// Size returns the length in bytes of the file's source.
func (f *File) Size() int { return len(f.src) }

// Position turns a Pos scanned from this file into a fully-qualified
// Position.
func (f *File) Position(p Pos) Position {
	line, col := p.LineCol()
	return Position{Filename: f.name, Line: line, Column: col}
}

// Range turns a (start, end) Pos pair scanned from this file into a
// FileRange.
func (f *File) Range(start, end Pos) FileRange {
	sl, sc := start.LineCol()
	el, ec := end.LineCol()
	return FileRange{Path: f.name, FirstLine: sl, FirstCol: sc, LastLine: el, LastCol: ec}
}

// FileRange is the (path, first line, first column, last line, last column)
// tuple attached to every AST, typed, and IR node for diagnostics and debug
// info (§3).
type FileRange struct {
	Path                string
	FirstLine, FirstCol int
	LastLine, LastCol   int
}

func (r FileRange) String() string {
	if r.Path == "" {
		return fmt.Sprintf("%d:%d", r.FirstLine, r.FirstCol)
	}
	return fmt.Sprintf("%s:%d:%d", r.Path, r.FirstLine, r.FirstCol)
}

// Start returns the position of the beginning of the range.
func (r FileRange) Start() Position {
	return Position{Filename: r.Path, Line: r.FirstLine, Column: r.FirstCol}
}

// End returns the position of the end of the range.
func (r FileRange) End() Position {
	return Position{Filename: r.Path, Line: r.LastLine, Column: r.LastCol}
}

// Join returns the smallest FileRange that encloses both r and other. Both
// ranges must belong to the same file; if they don't, r is returned as-is.
func (r FileRange) Join(other FileRange) FileRange {
	if r.Path != other.Path {
		return r
	}
	out := r
	if before(other.FirstLine, other.FirstCol, r.FirstLine, r.FirstCol) {
		out.FirstLine, out.FirstCol = other.FirstLine, other.FirstCol
	}
	if before(r.LastLine, r.LastCol, other.LastLine, other.LastCol) {
		out.LastLine, out.LastCol = other.LastLine, other.LastCol
	}
	return out
}

func before(l1, c1, l2, c2 int) bool {
	if l1 != l2 {
		return l1 < l2
	}
	return c1 < c2
}

// FileSet is the registry of source files known to a compilation: the root
// file plus every file transitively reached through imports. It is append
// only, mirroring the arena's stability guarantee (§5): a *File handed out
// by AddFile remains valid for the lifetime of the compilation.
type FileSet struct {
	byName map[string]*File
	order  []*File
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{byName: make(map[string]*File)}
}

// AddFile registers a new file with the given name and source bytes. If a
// file with that name was already added, the existing *File is returned
// unchanged (ParseFile jobs are deduplicated by absolute path, see §4.1).
func (fs *FileSet) AddFile(name string, src []byte) *File {
	if f, ok := fs.byName[name]; ok {
		return f
	}
	f := &File{name: name, src: src}
	fs.byName[name] = f
	fs.order = append(fs.order, f)
	return f
}

// File returns the file previously registered under name, or nil.
func (fs *FileSet) File(name string) *File {
	return fs.byName[name]
}

// Files returns every registered file, in the order they were added.
func (fs *FileSet) Files() []*File {
	return fs.order
}
