package element

import "fmt"

// Context carries a value down the tree without threading it through props.
// Components read the nearest provided value with the reconciler's
// UseContext hook; outside any provider they see the default.
type Context struct {
	name         string
	defaultValue any
	provider     *Provider
}

// NewContext creates a context with the given default value.
func NewContext(defaultValue any) *Context {
	return NewNamedContext("Context", defaultValue)
}

// NewNamedContext creates a context with a name used in diagnostics.
func NewNamedContext(name string, defaultValue any) *Context {
	c := &Context{name: name, defaultValue: defaultValue}
	c.provider = &Provider{ctx: c}
	return c
}

// Default returns the value seen outside any provider.
func (c *Context) Default() any {
	return c.defaultValue
}

// Provider returns the element type that supplies this context.
func (c *Context) Provider() *Provider {
	return c.provider
}

// Provide returns an element that supplies value to children.
func (c *Context) Provide(value any, children ...Node) *Element {
	return New(c.provider, Props{"value": value}, children...)
}

func (c *Context) String() string {
	return c.name
}

// Provider is the element type of a context provider.
type Provider struct {
	ctx *Context
}

// Context returns the context this provider supplies.
func (p *Provider) Context() *Context {
	return p.ctx
}

func (p *Provider) String() string {
	return fmt.Sprintf("%s.Provider", p.ctx.name)
}
