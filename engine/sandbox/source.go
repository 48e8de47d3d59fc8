package sandbox

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"path"
	"sort"
	"strconv"
	"strings"
)

// lexeme is one token of a snippet with its byte offset.
type lexeme struct {
	off int
	tok token.Token
}

func lex(code string) []lexeme {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(code))
	var s scanner.Scanner
	// Scan errors surface when the unit is compiled
	s.Init(file, []byte(code), nil, 0)

	var out []lexeme
	for {
		pos, tok, _ := s.Scan()
		if tok == token.EOF {
			return out
		}
		out = append(out, lexeme{off: file.Offset(pos), tok: tok})
	}
}

// splitDecls separates the top-level func and type declarations of a
// snippet from its statements. Both results keep the line layout of code:
// whatever belongs to the other half is blanked out.
func splitDecls(code string) (decls, stmts string) {
	ranges := declRanges(lex(code), len(code))
	if len(ranges) == 0 {
		return "", code
	}

	d := []byte(code)
	blank(d, 0, len(d))
	s := []byte(code)
	for _, r := range ranges {
		copy(d[r[0]:r[1]], code[r[0]:r[1]])
		blank(s, r[0], r[1])
	}
	return string(d), string(s)
}

func declRanges(lx []lexeme, size int) [][2]int {
	var ranges [][2]int
	depth, start := 0, true
	for i := 0; i < len(lx); i++ {
		if start && depth == 0 && isDeclStart(lx, i) {
			j := stmtEnd(lx, i)
			end := size
			if j < len(lx) {
				end = lx[j].off
			}
			ranges = append(ranges, [2]int{lx[i].off, end})
			i = j
			continue
		}
		switch lx[i].tok {
		case token.LPAREN, token.LBRACE, token.LBRACK:
			depth++
		case token.RPAREN, token.RBRACE, token.RBRACK:
			depth--
		}
		start = lx[i].tok == token.SEMICOLON && depth == 0
	}
	return ranges
}

// isDeclStart reports whether lx[i] begins a type declaration, a function
// declaration or a method declaration. Function literals do not count.
func isDeclStart(lx []lexeme, i int) bool {
	switch lx[i].tok {
	case token.TYPE:
		return true
	case token.FUNC:
		if i+1 >= len(lx) {
			return false
		}
		switch lx[i+1].tok {
		case token.IDENT:
			return true
		case token.LPAREN:
			// func (recv) Name(
			c := closing(lx, i+1)
			return c+2 < len(lx) && lx[c+1].tok == token.IDENT && lx[c+2].tok == token.LPAREN
		}
	}
	return false
}

// closing returns the index of the token closing the bracket at i.
func closing(lx []lexeme, i int) int {
	depth := 0
	for j := i; j < len(lx); j++ {
		switch lx[j].tok {
		case token.LPAREN, token.LBRACE, token.LBRACK:
			depth++
		case token.RPAREN, token.RBRACE, token.RBRACK:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(lx)
}

// stmtEnd returns the index of the semicolon ending the statement or
// declaration starting at i, or len(lx).
func stmtEnd(lx []lexeme, i int) int {
	depth := 0
	for j := i; j < len(lx); j++ {
		switch lx[j].tok {
		case token.LPAREN, token.LBRACE, token.LBRACK:
			depth++
		case token.RPAREN, token.RBRACE, token.RBRACK:
			depth--
		case token.SEMICOLON:
			if depth == 0 {
				return j
			}
		}
	}
	return len(lx)
}

// blank replaces b[from:to] with spaces, keeping newlines.
func blank(b []byte, from, to int) {
	for i := from; i < to && i < len(b); i++ {
		if b[i] != '\n' {
			b[i] = ' '
		}
	}
}

// stmtWrapper opens the function the statements of a unit are parsed in.
// It shares the first line with the unit so positions keep their line.
const stmtWrapper = "package main; func main() {"

// parseDecls parses a declarations unit. The package clause shares the
// first line with it.
func parseDecls(decls string) (*ast.File, error) {
	return parser.ParseFile(token.NewFileSet(), "", "package main;"+decls, 0)
}

// instrument parses the statement unit src and puts a line tracking call
// in front of every statement past the first line. Calls share the line
// of their statement, so compiled lines still match src. Function literal
// bodies are left alone; a failure inside one is reported at its caller.
func instrument(src string) (string, *ast.File, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", stmtWrapper+src+"\n}", 0)
	if err != nil {
		return "", nil, err
	}

	type mark struct{ off, line int }
	var marks []mark
	add := func(list []ast.Stmt) {
		for _, s := range list {
			switch s.(type) {
			case *ast.CaseClause, *ast.CommClause:
				continue
			}
			p := fset.Position(s.Pos())
			if p.Line > 1 {
				marks = append(marks, mark{off: p.Offset - len(stmtWrapper), line: p.Line})
			}
		}
	}
	ast.Inspect(file, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.BlockStmt:
			add(n.List)
		case *ast.CaseClause:
			add(n.Body)
		case *ast.CommClause:
			add(n.Body)
		}
		return true
	})
	sort.Slice(marks, func(i, j int) bool { return marks[i].off < marks[j].off })

	var b strings.Builder
	prev := 0
	for _, m := range marks {
		b.WriteString(src[prev:m.off])
		fmt.Fprintf(&b, "%s.Line(%d); ", PackageName, m.line)
		prev = m.off
	}
	b.WriteString(src[prev:])
	return b.String(), file, nil
}

// moduleImports returns the names of codegen.ImportModule calls with a
// literal argument.
func moduleImports(files ...*ast.File) []string {
	var names []string
	for _, f := range files {
		if f == nil {
			continue
		}
		ast.Inspect(f, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok || len(call.Args) != 1 {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok || sel.Sel.Name != "ImportModule" {
				return true
			}
			if x, ok := sel.X.(*ast.Ident); !ok || x.Name != PackageName {
				return true
			}
			lit, ok := call.Args[0].(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				return true
			}
			if name, err := strconv.Unquote(lit.Value); err == nil {
				names = append(names, name)
			}
			return true
		})
	}
	return names
}

// dropImported blanks the imports of a module file that the namespace
// already has under the same name. The interpreter keeps imports at
// package level, so importing them again is a redeclaration. The imports
// the module adds are returned by local name.
func dropImported(filename string, src []byte, have map[string]string) (string, map[string]string, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ImportsOnly)
	if err != nil {
		return "", nil, err
	}

	out := append([]byte(nil), src...)
	added := map[string]string{}
	offset := func(p token.Pos) int { return fset.Position(p).Offset }

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.IMPORT {
			continue
		}
		kept := 0
		for _, spec := range gen.Specs {
			is := spec.(*ast.ImportSpec)
			p, err := strconv.Unquote(is.Path.Value)
			if err != nil {
				kept++
				continue
			}
			name := path.Base(p)
			if is.Name != nil {
				name = is.Name.Name
			}
			if name == "_" || name == "." {
				kept++
				continue
			}
			if have[name] == p || added[name] == p {
				blank(out, offset(is.Pos()), offset(is.End()))
				continue
			}
			added[name] = p
			kept++
		}
		if kept == 0 {
			blank(out, offset(gen.Pos()), offset(gen.End()))
		}
	}
	return string(out), added, nil
}
