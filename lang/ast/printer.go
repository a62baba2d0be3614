package ast

import (
	"fmt"
	"io"

	"github.com/vela-lang/velac/lang/token"
)

// Printer pretty-prints an AST as an indented tree, one node per line. It
// backs the CLI's `parse` subcommand.
type Printer struct {
	Output io.Writer
	File   *token.File // optional; if set, positions are printed too
}

type printerVisitor struct {
	p     *Printer
	depth int
	err   error
}

func (pv *printerVisitor) Visit(n Node, dir VisitDirection) Visitor {
	if pv.err != nil {
		return nil
	}
	if dir == VisitExit {
		pv.depth--
		return nil
	}

	indent := ""
	for i := 0; i < pv.depth; i++ {
		indent += "  "
	}
	if pv.p.File != nil {
		start, _ := n.Span()
		pos := pv.p.File.Position(start)
		_, pv.err = fmt.Fprintf(pv.p.Output, "%s%v  (%s)\n", indent, n, pos)
	} else {
		_, pv.err = fmt.Fprintf(pv.p.Output, "%s%v\n", indent, n)
	}
	pv.depth++
	return pv
}

// Print walks n and writes its indented tree representation.
func (p *Printer) Print(n Node) error {
	pv := &printerVisitor{p: p}
	Walk(pv, n)
	return pv.err
}
