package navigation

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultRoutes []byte

// maxRedirects bounds how many redirect descriptors a single resolution may follow
const maxRedirects = 8

// Route is a static declaration of a navigable path
type Route struct {
	Path            string  `yaml:"path"`
	Name            string  `yaml:"name"`
	RequiresAuth    bool    `yaml:"requires_auth"`
	RequiresProfile bool    `yaml:"requires_profile"`
	Redirect        string  `yaml:"redirect"`
	Abstract        bool    `yaml:"abstract"`
	Children        []Route `yaml:"children"`
}

// TableDefinition is the serialized form of a route table
type TableDefinition struct {
	Fallback string  `yaml:"fallback"`
	Routes   []Route `yaml:"routes"`
}

// Match is the result of resolving a path
type Match struct {
	Route Route   // The matched descriptor
	Chain []Route // Ancestors first, matched descriptor last
	Path  string  // Resolved path after following redirects
}

// RequiresAuth reports whether the descriptor or any of its ancestors requires a session
func (m Match) RequiresAuth() bool {
	for _, r := range m.Chain {
		if r.RequiresAuth {
			return true
		}
	}
	return false
}

// RequiresProfile reports whether the descriptor or any of its ancestors requires a completed profile
func (m Match) RequiresProfile() bool {
	for _, r := range m.Chain {
		if r.RequiresProfile {
			return true
		}
	}
	return false
}

type entry struct {
	path  string
	chain []Route
}

func (e entry) leaf() Route {
	return e.chain[len(e.chain)-1]
}

// Table is an immutable, validated route table
type Table struct {
	fallback string
	entries  []entry
}

// DefaultTable returns the embedded route table
func DefaultTable() (*Table, error) {
	return LoadTable(bytes.NewReader(defaultRoutes))
}

// LoadTable parses a YAML route table
func LoadTable(r io.Reader) (*Table, error) {
	var def TableDefinition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", apperrors.ErrInvalidRoutes, err)
	}
	return NewTable(def)
}

// NewTable flattens and validates a table definition
func NewTable(def TableDefinition) (*Table, error) {
	t := &Table{fallback: def.Fallback}
	for _, r := range def.Routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("%w: top level path %q must be absolute", apperrors.ErrInvalidRoutes, r.Path)
		}
		t.flatten("", nil, r)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) flatten(parentPath string, parents []Route, r Route) {
	path := joinPath(parentPath, r.Path)
	chain := make([]Route, 0, len(parents)+1)
	chain = append(chain, parents...)
	chain = append(chain, r)

	t.entries = append(t.entries, entry{path: path, chain: chain})
	for _, child := range r.Children {
		t.flatten(path, chain, child)
	}
}

func (t *Table) validate() error {
	if t.fallback == "" {
		return fmt.Errorf("%w: fallback path is required", apperrors.ErrInvalidRoutes)
	}

	names := make(map[string]struct{})
	paths := make(map[string]struct{})
	for _, e := range t.entries {
		leaf := e.leaf()
		if leaf.Name != "" {
			if _, dup := names[leaf.Name]; dup {
				return fmt.Errorf("%w: duplicate route name %q", apperrors.ErrInvalidRoutes, leaf.Name)
			}
			names[leaf.Name] = struct{}{}
		}
		if leaf.Abstract {
			if len(leaf.Children) == 0 {
				return fmt.Errorf("%w: abstract route %q has no children", apperrors.ErrInvalidRoutes, leaf.Name)
			}
			continue
		}
		if _, dup := paths[e.path]; dup {
			return fmt.Errorf("%w: duplicate path %q", apperrors.ErrInvalidRoutes, e.path)
		}
		paths[e.path] = struct{}{}
	}

	for _, e := range t.entries {
		if e.leaf().Redirect == "" {
			continue
		}
		if _, err := t.Resolve(e.path); err != nil {
			return fmt.Errorf("%w: redirect from %q: %v", apperrors.ErrInvalidRoutes, e.path, err)
		}
	}

	fallback, err := t.Resolve(t.fallback)
	if err != nil {
		return fmt.Errorf("%w: fallback %q: %v", apperrors.ErrInvalidRoutes, t.fallback, err)
	}
	if fallback.RequiresAuth() {
		return fmt.Errorf("%w: fallback %q must be reachable without a session", apperrors.ErrInvalidRoutes, t.fallback)
	}
	return nil
}

// Fallback is where unauthenticated visitors of guarded routes are sent
func (t *Table) Fallback() string {
	return t.fallback
}

// Resolve finds the descriptor for path, following redirect descriptors
func (t *Table) Resolve(path string) (Match, error) {
	current := normalizePath(path)
	for hops := 0; hops <= maxRedirects; hops++ {
		e, ok := t.find(current)
		if !ok {
			return Match{}, fmt.Errorf("%w: %s", apperrors.ErrRouteNotFound, current)
		}
		leaf := e.leaf()
		if leaf.Redirect == "" {
			return Match{Route: leaf, Chain: e.chain, Path: e.path}, nil
		}
		current = normalizePath(leaf.Redirect)
	}
	return Match{}, fmt.Errorf("%w: %s", apperrors.ErrRedirectLoop, path)
}

// Paths lists every navigable path in declaration order, redirects included
func (t *Table) Paths() []string {
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		if !e.leaf().Abstract {
			out = append(out, e.path)
		}
	}
	return out
}

// PathFor returns the full path of the named route
func (t *Table) PathFor(name string) (string, bool) {
	for _, e := range t.entries {
		if e.leaf().Name == name && !e.leaf().Abstract {
			return e.path, true
		}
	}
	return "", false
}

func (t *Table) find(path string) (entry, bool) {
	for _, e := range t.entries {
		if e.path == path && !e.leaf().Abstract {
			return e, true
		}
	}
	return entry{}, false
}

func joinPath(parent, child string) string {
	if strings.HasPrefix(child, "/") || parent == "" {
		return normalizePath(child)
	}
	return normalizePath(strings.TrimSuffix(parent, "/") + "/" + child)
}

func normalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(path, "/")
}
