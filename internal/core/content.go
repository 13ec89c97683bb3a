package core

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ContentByName maps a file name to its review text. Iteration follows
// insertion order, so the first reviewed file always leads the report.
type ContentByName struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewContentByName returns an empty mapping.
func NewContentByName() *ContentByName {
	return &ContentByName{m: orderedmap.New[string, string]()}
}

// Set stores the review for name. Re-setting an existing name keeps its position.
func (c *ContentByName) Set(name, review string) {
	c.m.Set(name, review)
}

// Get returns the review stored for name.
func (c *ContentByName) Get(name string) (string, bool) {
	return c.m.Get(name)
}

// Len returns the number of entries.
func (c *ContentByName) Len() int {
	if c == nil || c.m == nil {
		return 0
	}
	return c.m.Len()
}

// Names returns the keys in insertion order.
func (c *ContentByName) Names() []string {
	names := make([]string, 0, c.Len())
	c.Each(func(name, _ string) {
		names = append(names, name)
	})
	return names
}

// Each calls fn for every entry in insertion order.
func (c *ContentByName) Each(fn func(name, review string)) {
	if c.Len() == 0 {
		return
	}
	for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}
