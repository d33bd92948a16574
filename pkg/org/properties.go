package org

import "strings"

// PropertyDrawer is the ordered :KEY: value mapping attached to a
// headline. The zero value is an empty drawer.
type PropertyDrawer struct {
	Properties []Property
}

// Property is a single :Name: value entry.
type Property struct {
	Name  string
	Value string
}

// Get returns the value for name. Name comparison is case-insensitive,
// matching how Org treats property names. A nil drawer has no properties.
func (d *PropertyDrawer) Get(name string) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, p := range d.Properties {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// Set adds the property or replaces the value of an existing one in
// place, preserving insertion order.
func (d *PropertyDrawer) Set(name, value string) {
	for i, p := range d.Properties {
		if strings.EqualFold(p.Name, name) {
			d.Properties[i].Value = value
			return
		}
	}
	d.Properties = append(d.Properties, Property{Name: name, Value: value})
}

// Delete removes the named property and reports whether it was present.
// Deleting the last property leaves an empty drawer, not a nil one;
// drawer presence is a state of its own.
func (d *PropertyDrawer) Delete(name string) bool {
	for i, p := range d.Properties {
		if strings.EqualFold(p.Name, name) {
			d.Properties = append(d.Properties[:i], d.Properties[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of properties. A nil drawer has length zero.
func (d *PropertyDrawer) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Properties)
}

// Keys returns the property names in insertion order.
func (d *PropertyDrawer) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.Properties))
	for i, p := range d.Properties {
		keys[i] = p.Name
	}
	return keys
}

// InheritedProperty resolves key for h the way Org property inheritance
// does: h's own drawer first, then ancestor drawers nearest-first, then
// the document's #+PROPERTY: keywords. The bool is false when no level of
// the chain defines the key.
func InheritedProperty(d *Document, h *Headline, key string) (string, bool) {
	if v, ok := h.Properties.Get(key); ok {
		return v, true
	}
	if path, ok := HeadlinePath(d, h); ok {
		for i := len(path) - 2; i >= 0; i-- {
			if v, ok := path[i].Properties.Get(key); ok {
				return v, true
			}
		}
	}
	return documentProperty(d, key)
}

// documentProperty resolves key against the #+PROPERTY: keywords. The last
// definition of a key wins.
func documentProperty(d *Document, key string) (string, bool) {
	value, ok := "", false
	for _, p := range d.Properties() {
		if strings.EqualFold(p.Name, key) {
			value, ok = p.Value, true
		}
	}
	return value, ok
}

// EffectiveProperties merges the full inheritance chain for h into one
// map, nearer definitions overriding farther ones. Keys are upper-cased
// so the merge is spelling-insensitive.
func EffectiveProperties(d *Document, h *Headline) map[string]string {
	out := map[string]string{}
	merge := func(props []Property) {
		for _, p := range props {
			out[strings.ToUpper(p.Name)] = p.Value
		}
	}
	merge(d.Properties())
	if path, ok := HeadlinePath(d, h); ok {
		for _, ancestor := range path {
			if ancestor.Properties != nil {
				merge(ancestor.Properties.Properties)
			}
		}
	} else if h.Properties != nil {
		// Detached headline: only its own drawer applies.
		merge(h.Properties.Properties)
	}
	return out
}
