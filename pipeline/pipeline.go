// Package pipeline runs one translation unit through every phase: lexing,
// parsing, optional semantic analysis, pruning and IR generation.
package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tpplang/tppc/ast"
	"github.com/tpplang/tppc/compiler"
	"github.com/tpplang/tppc/cst"
	"github.com/tpplang/tppc/diag"
	"github.com/tpplang/tppc/lexer"
	"github.com/tpplang/tppc/parser"
	"github.com/tpplang/tppc/prune"
	"github.com/tpplang/tppc/sema"
	"github.com/tpplang/tppc/token"
	"tinygo.org/x/go-llvm"
)

const (
	TPP_SUFFIX = ".tpp"
	IR_SUFFIX  = ".ll"
)

// Input file diagnostic codes.
const (
	ErrFileNotTPP    = "ERR-SYN-NOT-TPP"
	ErrFileNotExists = "ERR-SYN-FILE-NOT-EXISTS"
)

var (
	ErrNotTPP = errors.New("not a .tpp file")
	ErrSyntax = errors.New("syntax errors")
)

// Analyzer is the semantic stage. It sees the parse tree before pruning and
// reports findings without changing the tree.
type Analyzer interface {
	Analyze(root *cst.Node) diag.List
}

type Options struct {
	// Analyze runs the semantic stage between parsing and pruning.
	Analyze bool
	// NewAnalyzer builds the semantic stage for one unit. nil uses sema.
	NewAnalyzer func() Analyzer
	// Verify runs the LLVM verifier on the finished module.
	Verify bool
}

// DefaultOptions analyzes every unit with sema.
func DefaultOptions() Options {
	return Options{Analyze: true}
}

func (o Options) analyzer() Analyzer {
	if o.NewAnalyzer != nil {
		return o.NewAnalyzer()
	}
	return sema.New()
}

// Unit is one source file.
type Unit struct {
	Name   string
	Source string
}

// ModuleName is the file name without directory and .tpp suffix.
func (u Unit) ModuleName() string {
	return strings.TrimSuffix(filepath.Base(u.Name), TPP_SUFFIX)
}

// Result holds whatever the phases produced before the unit finished or
// stopped.
type Result struct {
	Unit        Unit
	Tree        *cst.Node
	Table       *sema.Table
	Program     *ast.Program
	Diagnostics diag.List
	// CompileErrors are problems the generator found while lowering.
	CompileErrors []*token.CompileError
	IR            string
}

// HasErrors reports whether any phase found an error. Warnings do not count.
func (r *Result) HasErrors() bool {
	return r.Diagnostics.HasErrors() || len(r.CompileErrors) > 0
}

// FileError is an input problem found before parsing starts.
type FileError struct {
	Diagnostic diag.Diagnostic
	Err        error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Diagnostic.Args["file"], e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// LoadFile checks that path names an existing .tpp file and reads it.
func LoadFile(path string) (Unit, error) {
	if !strings.HasSuffix(path, TPP_SUFFIX) {
		return Unit{}, &FileError{Diagnostic: diag.New(ErrFileNotTPP, 0, 0, "file", path), Err: ErrNotTPP}
	}
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Unit{}, &FileError{Diagnostic: diag.New(ErrFileNotExists, 0, 0, "file", path), Err: err}
	}
	if err != nil {
		return Unit{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Unit{Name: path, Source: string(src)}, nil
}

// Parse lexes and parses the unit, then runs the semantic stage if enabled.
// The tree is kept even when it holds errors.
func Parse(u Unit, opts Options) *Result {
	res := &Result{Unit: u}
	p := parser.New(lexer.New(u.Name, u.Source))
	res.Tree = p.Parse()
	res.Diagnostics = append(res.Diagnostics, p.Diagnostics()...)

	if res.Tree == nil || p.HasErrors() || !opts.Analyze {
		return res
	}
	a := opts.analyzer()
	res.Diagnostics = append(res.Diagnostics, a.Analyze(res.Tree)...)
	if s, ok := a.(*sema.Analyzer); ok {
		res.Table = s.Table
	}
	return res
}

// Compile runs every phase on u with its own LLVM context. A unit with syntax
// errors stops before pruning and returns an error wrapping ErrSyntax;
// semantic findings never stop it.
func Compile(u Unit, opts Options) (*Result, error) {
	res := Parse(u, opts)
	if res.Tree == nil {
		return res, fmt.Errorf("%s: %w", u.Name, prune.ErrNoTree)
	}
	if res.Tree.HasErrors() || hasSyntaxErrors(res.Diagnostics) {
		return res, fmt.Errorf("%s: %w", u.Name, ErrSyntax)
	}

	program, err := prune.Program(res.Tree)
	if err != nil {
		return res, fmt.Errorf("%s: %w", u.Name, err)
	}
	res.Program = program

	ctx := llvm.NewContext()
	defer ctx.Dispose()
	c := compiler.NewCompiler(ctx, u.ModuleName())
	defer c.Dispose()

	res.CompileErrors = c.Compile(program)
	res.IR = c.GenerateIR()
	if opts.Verify && len(res.CompileErrors) == 0 {
		if err := c.Verify(); err != nil {
			return res, fmt.Errorf("%s: invalid module: %w", u.Name, err)
		}
	}
	return res, nil
}

// hasSyntaxErrors reports errors raised by the lexer or parser, as opposed to
// semantic ones.
func hasSyntaxErrors(l diag.List) bool {
	for _, d := range l.Errors() {
		if strings.HasPrefix(d.Code, "ERR-SYN-") || strings.HasPrefix(d.Code, "ERR-LEX-") {
			return true
		}
	}
	return false
}
