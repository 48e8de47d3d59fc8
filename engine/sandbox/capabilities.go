package sandbox

import (
	"github.com/teranos/codegen/devicetree"
)

// Emitter receives the text a snippet generates.
type Emitter interface {
	Emit(s string)
}

// ConfigSource answers configuration symbol lookups (CONFIG_FOO).
type ConfigSource interface {
	Lookup(name string) (string, bool)
	All() map[string]string
}

// PropertySource answers flat hardware property lookups.
type PropertySource interface {
	Property(name string) (string, error)
	Properties() (map[string]string, error)
	ControllerCount(deviceType string) (int, error)
	ControllerPrefix(deviceType string, idx int) (string, error)
	ControllerProperty(deviceType string, idx int, property string) (string, error)
}

// NodeSource answers structured hardware lookups for a compatible selection.
type NodeSource interface {
	Select(driverCompatibles []string) (*devicetree.Selection, error)
	HasAny(compatibles []string) (bool, error)
	Labels(sel *devicetree.Selection) ([]string, error)
	NodeProperty(sel *devicetree.Selection, label, path string) (interface{}, error)
}

// ModuleFinder resolves module names to source files.
type ModuleFinder interface {
	FindModule(name string) (string, error)
}

// Includer runs nested generation of a template file within the same
// namespace and returns the generated text.
type Includer interface {
	Include(ns *Namespace, name string) (string, error)
}

// Providers are the capabilities available to snippets. Nil providers
// make the matching capabilities fail with a located error.
type Providers struct {
	Config     ConfigSource
	Properties PropertySource
	Nodes      NodeSource
	Modules    ModuleFinder
	Includer   Includer
}
