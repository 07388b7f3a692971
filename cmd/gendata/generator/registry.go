package generator

import (
	"fmt"
	"slices"
)

// Registry maps generator names to generator factory functions
var Registry = map[string]func() Generator{
	"applog":  func() Generator { return &AppLogGenerator{Services: 8} },
	"metrics": func() Generator { return &MetricGenerator{HostCount: 16} },
	"access":  func() Generator { return &AccessLogGenerator{} },
}

// Get returns a generator by name
func Get(name string) (Generator, error) {
	factory, exists := Registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown generator: %s", name)
	}
	return factory(), nil
}

// List returns all available generator names, sorted
func List() []string {
	var names []string
	for name := range Registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
