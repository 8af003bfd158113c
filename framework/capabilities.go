package framework

import "sort"

// Capabilities is a set of optional feature names that the backend under test has declared
// support for. Tests that depend on an optional feature can check for it and skip themselves
// if it is absent.
type Capabilities []string

func (c Capabilities) Has(name string) bool {
	for _, n := range c {
		if n == name {
			return true
		}
	}
	return false
}

// With returns a new set containing all of the current names plus any new ones, sorted and
// without duplicates.
func (c Capabilities) With(names ...string) Capabilities {
	seen := make(map[string]bool)
	var ret Capabilities
	for _, n := range append(append([]string(nil), c...), names...) {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		ret = append(ret, n)
	}
	sort.Strings(ret)
	return ret
}

// Missing returns the names from all that are not in the set, preserving their order.
func (c Capabilities) Missing(all []string) []string {
	var ret []string
	for _, n := range all {
		if !c.Has(n) {
			ret = append(ret, n)
		}
	}
	return ret
}
