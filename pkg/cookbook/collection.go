package cookbook

import (
	"iter"
	"slices"

	"github.com/matzehuels/cookgems/pkg/errors"
)

// Collection is an ordered set of cookbooks keyed by name.
//
// Iteration order is insertion order. A Collection is not safe for
// concurrent mutation; once loaded it is only read.
type Collection struct {
	order  []string
	byName map[string]*Version
}

// NewCollection builds a collection from versions in the given order.
// It fails on the first duplicate or invalid cookbook name.
func NewCollection(versions ...*Version) (*Collection, error) {
	c := &Collection{byName: make(map[string]*Version, len(versions))}
	for _, v := range versions {
		if err := c.Add(v); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add appends a cookbook to the collection.
func (c *Collection) Add(v *Version) error {
	if v == nil {
		return errors.New(errors.ErrCodeInvalidCookbook, "nil cookbook")
	}
	if err := errors.ValidateCookbookName(v.Name); err != nil {
		return err
	}
	if c.byName == nil {
		c.byName = make(map[string]*Version)
	}
	if prev, ok := c.byName[v.Name]; ok {
		return errors.New(errors.ErrCodeDuplicateCookbook,
			"cookbook %q loaded twice (%s and %s)", v.Name, prev.Path, v.Path)
	}
	c.byName[v.Name] = v
	c.order = append(c.order, v.Name)
	return nil
}

// Get returns the cookbook with the given name.
func (c *Collection) Get(name string) (*Version, bool) {
	v, ok := c.byName[name]
	return v, ok
}

// Len returns the number of cookbooks.
func (c *Collection) Len() int { return len(c.order) }

// Names returns cookbook names in collection order.
func (c *Collection) Names() []string { return slices.Clone(c.order) }

// All yields every cookbook in collection order.
func (c *Collection) All() iter.Seq2[string, *Version] {
	return func(yield func(string, *Version) bool) {
		for _, name := range c.order {
			if !yield(name, c.byName[name]) {
				return
			}
		}
	}
}
