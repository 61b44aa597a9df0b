package dataset

import "sort"

// ClassIndex maps class names to the integer ids written to label files.
type ClassIndex struct {
	names []string
	ids   map[string]int
}

// NewClassIndex sorts the class set and assigns ids 0..n-1 in that order.
func NewClassIndex(classes map[string]struct{}) ClassIndex {
	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)
	ids := make(map[string]int, len(names))
	for i, name := range names {
		ids[name] = i
	}
	return ClassIndex{names: names, ids: ids}
}

// Lookup returns the id assigned to name.
func (c ClassIndex) Lookup(name string) (int, bool) {
	id, ok := c.ids[name]
	return id, ok
}

// Names returns class names in id order.
func (c ClassIndex) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of classes.
func (c ClassIndex) Len() int {
	return len(c.names)
}
