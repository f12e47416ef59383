// Package mdtest reads compiler test cases written as Markdown documents.
//
// A case starts at a heading "Test: <name>" and is followed by one tpp fence
// holding the program and any number of assertion fences:
//
//	ir           lines that must appear in the generated IR
//	not-ir       lines that must not appear in the generated IR
//	diagnostics  diagnostic codes, one per line, in reporting order
package mdtest

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const InputFence = "tpp"

type AssertionType string

const (
	AssertIR          AssertionType = "ir"
	AssertNotIR       AssertionType = "not-ir"
	AssertDiagnostics AssertionType = "diagnostics"
)

type Assertion struct {
	Type AssertionType
	// Lines holds the non-blank lines of the fence, trimmed.
	Lines []string
	Line  int
}

type TestCase struct {
	Name       string
	Input      string
	Line       int
	Assertions []Assertion
}

// Of returns the assertions of one type.
func (tc TestCase) Of(typ AssertionType) []Assertion {
	var out []Assertion
	for _, a := range tc.Assertions {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

// Has reports whether the case carries at least one assertion of typ.
func (tc TestCase) Has(typ AssertionType) bool {
	return len(tc.Of(typ)) > 0
}

// ParseFile reads and parses a Markdown test file.
func ParseFile(path string) ([]TestCase, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cases, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// Parse extracts every test case of a Markdown document.
func Parse(source []byte) ([]TestCase, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []TestCase
	var cur *TestCase
	flush := func() error {
		if cur == nil {
			return nil
		}
		if cur.Input == "" {
			return fmt.Errorf("test %q has no %s fence", cur.Name, InputFence)
		}
		if len(cur.Assertions) == 0 {
			return fmt.Errorf("test %q has no assertion fences", cur.Name)
		}
		cases = append(cases, *cur)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			title := headingText(n, source)
			if !strings.HasPrefix(title, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			cur = &TestCase{
				Name: strings.TrimSpace(strings.TrimPrefix(title, "Test: ")),
				Line: lineOf(n, source),
			}

		case *ast.FencedCodeBlock:
			lang := string(n.Language(source))
			line := lineOf(n, source)
			if cur == nil {
				if lang == "" {
					return ast.WalkContinue, nil
				}
				return ast.WalkStop, fmt.Errorf("line %d: %s fence outside of a test", line, lang)
			}
			content := fenceContent(n, source)
			switch {
			case lang == InputFence:
				if cur.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: test %q has more than one %s fence", line, cur.Name, InputFence)
				}
				cur.Input = content
			case isAssertion(lang):
				cur.Assertions = append(cur.Assertions, Assertion{
					Type:  AssertionType(lang),
					Lines: nonBlankLines(content),
					Line:  line,
				})
			case lang == "":
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence %q in test %q", line, lang, cur.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cases, nil
}

func isAssertion(lang string) bool {
	switch AssertionType(lang) {
	case AssertIR, AssertNotIR, AssertDiagnostics:
		return true
	}
	return false
}

func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(n *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func nonBlankLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// lineOf is the 1-based source line where the node's content starts. Fenced
// blocks report the line after the opening fence.
func lineOf(n ast.Node, source []byte) int {
	var start int
	switch {
	case n.Lines().Len() > 0:
		start = n.Lines().At(0).Start
	case n.Type() == ast.TypeBlock && n.HasChildren():
		if t, ok := n.FirstChild().(*ast.Text); ok {
			start = t.Segment.Start
		}
	}
	if start > len(source) {
		start = len(source)
	}
	return 1 + bytes.Count(source[:start], []byte("\n"))
}
