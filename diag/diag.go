// Package diag defines the diagnostics reported by every compiler phase and
// the catalog that turns a diagnostic code into a readable message.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a single finding. Code identifies the rule (e.g.
// "ERR-SEM-VAR-NOT-DECL"), Args fills the catalog template.
type Diagnostic struct {
	Code   string
	Line   int
	Column int
	Args   map[string]string
}

// New builds a diagnostic from alternating key/value pairs.
func New(code string, line, column int, kv ...string) Diagnostic {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("diag.New(%s): odd number of key/value arguments", code))
	}
	d := Diagnostic{Code: code, Line: line, Column: column}
	if len(kv) > 0 {
		d.Args = make(map[string]string, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			d.Args[kv[i]] = kv[i+1]
		}
	}
	return d
}

// Severity derives from the code prefix: WAR- codes are warnings, everything
// else is an error.
func (d Diagnostic) Severity() Severity {
	if strings.HasPrefix(d.Code, "WAR-") {
		return Warning
	}
	return Error
}

func (d Diagnostic) Error() string {
	return d.Render(Default())
}

// Render formats the diagnostic with the message found in c. Unknown codes
// render the code and its arguments.
func (d Diagnostic) Render(c Catalog) string {
	msg, err := c.Message(d)
	if err != nil {
		msg = d.fallback()
	}
	if d.Line <= 0 {
		return fmt.Sprintf("%s %s: %s", d.Severity(), d.Code, msg)
	}
	if d.Column <= 0 {
		return fmt.Sprintf("%d: %s %s: %s", d.Line, d.Severity(), d.Code, msg)
	}
	return fmt.Sprintf("%d:%d: %s %s: %s", d.Line, d.Column, d.Severity(), d.Code, msg)
}

func (d Diagnostic) fallback() string {
	keys := make([]string, 0, len(d.Args))
	for k := range d.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + d.Args[k]
	}
	return strings.Join(parts, ", ")
}

// List is an ordered set of diagnostics as reported.
type List []Diagnostic

func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity() == Error {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity entries.
func (l List) Errors() List {
	var out List
	for _, d := range l {
		if d.Severity() == Error {
			out = append(out, d)
		}
	}
	return out
}

// Codes lists the codes in report order.
func (l List) Codes() []string {
	out := make([]string, len(l))
	for i, d := range l {
		out[i] = d.Code
	}
	return out
}

// Count returns how many entries carry code.
func (l List) Count(code string) int {
	n := 0
	for _, d := range l {
		if d.Code == code {
			n++
		}
	}
	return n
}
