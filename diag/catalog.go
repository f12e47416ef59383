package diag

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var defaultMessages []byte

// Catalog maps a diagnostic to its human readable message.
type Catalog interface {
	Message(d Diagnostic) (string, error)
}

// TemplateCatalog is a Catalog whose messages are text/template strings
// rendered against the diagnostic arguments, e.g. "variable '{{.name}}'".
type TemplateCatalog struct {
	templates map[string]*template.Template
}

type catalogFile struct {
	Messages map[string]string `yaml:"messages"`
}

// LoadCatalog reads a YAML catalog of the form
//
//	messages:
//	  ERR-SEM-VAR-NOT-DECL: "variable '{{.name}}' not declared"
func LoadCatalog(r io.Reader) (*TemplateCatalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding message catalog: %w", err)
	}
	c := &TemplateCatalog{templates: make(map[string]*template.Template, len(f.Messages))}
	for code, text := range f.Messages {
		tmpl, err := template.New(code).Option("missingkey=zero").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", code, err)
		}
		c.templates[code] = tmpl
	}
	return c, nil
}

// LoadCatalogFile loads a catalog from path.
func LoadCatalogFile(path string) (*TemplateCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCatalog(f)
}

func (c *TemplateCatalog) Has(code string) bool {
	_, ok := c.templates[code]
	return ok
}

func (c *TemplateCatalog) Message(d Diagnostic) (string, error) {
	tmpl, ok := c.templates[d.Code]
	if !ok {
		return "", fmt.Errorf("no message for %s", d.Code)
	}
	args := d.Args
	if args == nil {
		args = map[string]string{}
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, args); err != nil {
		return "", err
	}
	return out.String(), nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *TemplateCatalog
)

// Default returns the built-in catalog.
func Default() *TemplateCatalog {
	defaultOnce.Do(func() {
		c, err := LoadCatalog(bytes.NewReader(defaultMessages))
		if err != nil {
			panic(fmt.Sprintf("built-in message catalog is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}
