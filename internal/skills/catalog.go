package skills

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed apps.yaml
var defaultCatalog []byte

// CatalogEntry maps a spoken application name onto host executables.
type CatalogEntry struct {
	Name    string            `yaml:"name"`
	Aliases []string          `yaml:"aliases"`
	Exec    map[string]string `yaml:"exec"`
	Process string            `yaml:"process"`
}

// Catalog resolves spoken names and aliases. The zero value resolves every name to itself.
type Catalog struct {
	byName map[string]CatalogEntry
}

type catalogDoc struct {
	Apps []CatalogEntry `yaml:"apps"`
}

// DefaultCatalog returns the built-in alias table.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalog))
}

// LoadCatalogFile reads an alias table from path. An empty path yields the built-in table.
func LoadCatalogFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open app catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog decodes a YAML alias table.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode app catalog: %w", err)
	}
	c := &Catalog{byName: map[string]CatalogEntry{}}
	for _, e := range doc.Apps {
		name := normalizeName(e.Name)
		if name == "" {
			return nil, fmt.Errorf("app catalog: entry without name")
		}
		c.byName[name] = e
		for _, a := range e.Aliases {
			c.byName[normalizeName(a)] = e
		}
	}
	return c, nil
}

// Executable returns what to launch for spoken on goos.
func (c *Catalog) Executable(spoken, goos string) string {
	e, ok := c.lookup(spoken)
	if !ok {
		return strings.TrimSpace(spoken)
	}
	if exe := strings.TrimSpace(e.Exec[goos]); exe != "" {
		return exe
	}
	return e.Name
}

// Process returns the process name to terminate for spoken.
func (c *Catalog) Process(spoken string) string {
	e, ok := c.lookup(spoken)
	if !ok {
		return strings.TrimSpace(spoken)
	}
	if e.Process != "" {
		return e.Process
	}
	return e.Name
}

// Names returns every spelling that should match a window title for spoken.
func (c *Catalog) Names(spoken string) []string {
	names := []string{normalizeName(spoken)}
	if e, ok := c.lookup(spoken); ok {
		names = append(names, normalizeName(e.Name))
		for _, a := range e.Aliases {
			names = append(names, normalizeName(a))
		}
	}
	return names
}

func (c *Catalog) lookup(spoken string) (CatalogEntry, bool) {
	if c == nil || c.byName == nil {
		return CatalogEntry{}, false
	}
	e, ok := c.byName[normalizeName(spoken)]
	return e, ok
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
