// In file: internal/tools/catalog.go
package tools

import (
	"fmt"
	"strings"
)

// Descriptor binds a tool's schema to its handler.
type Descriptor struct {
	Tool     Tool
	Handler  Handler
	Terminal bool
}

// Catalog holds a registry of all available tools. It is built once at
// startup and only read afterwards; Register is not safe to call once the
// catalog is shared.
type Catalog struct {
	tools map[string]Descriptor
	order []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tools: make(map[string]Descriptor),
	}
}

// BuildCatalog registers every handler in order and fails on the first
// rejected one.
func BuildCatalog(handlers ...Handler) (*Catalog, error) {
	c := NewCatalog()
	for _, h := range handlers {
		if err := c.Register(h); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a new tool to the registry after validating its schema.
func (c *Catalog) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("tool handler is nil")
	}
	def := h.Definition()
	name := strings.TrimSpace(def.Function.Name)
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if _, exists := c.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	if err := checkSchema(name, &def.Function.Parameters); err != nil {
		return err
	}

	terminal := false
	if t, ok := h.(Terminal); ok {
		terminal = t.Terminal()
	}
	c.tools[name] = Descriptor{Tool: def, Handler: h, Terminal: terminal}
	c.order = append(c.order, name)
	return nil
}

// Lookup returns the descriptor registered under name.
func (c *Catalog) Lookup(name string) (Descriptor, error) {
	d, ok := c.tools[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return d, nil
}

// IsTerminal reports whether name is the designated terminal tool.
func (c *Catalog) IsTerminal(name string) bool {
	return c.tools[name].Terminal
}

// Definitions returns all tool definitions in registration order.
func (c *Catalog) Definitions() []Tool {
	defs := make([]Tool, 0, len(c.order))
	for _, name := range c.order {
		defs = append(defs, c.tools[name].Tool)
	}
	return defs
}

// Len returns the number of registered tools.
func (c *Catalog) Len() int {
	return len(c.tools)
}

// checkSchema rejects schemas with a declared but empty enumeration anywhere
// in the tree.
func checkSchema(path string, s *JSONSchema) error {
	if s == nil {
		return nil
	}
	if s.Enum != nil && len(s.Enum) == 0 {
		return fmt.Errorf("%w: %s enumerates no values", ErrEmptyEnumeration, path)
	}
	if err := checkSchema(path+"[]", s.Items); err != nil {
		return err
	}
	for name, prop := range s.Properties {
		if err := checkSchema(path+"."+name, prop); err != nil {
			return err
		}
	}
	return nil
}
