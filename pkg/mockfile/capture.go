package mockfile

// Capture is a named value extracted from a request during matching. A
// Captures set lives for a single match-and-render call and is never
// retained.
type Capture struct {
	Name  string
	Value string
}

// Captures is the ordered set of captures bound for one request. A small
// slice beats a map here: definitions declare a handful of captures at
// most, and the slice costs one allocation.
type Captures []Capture

// Lookup returns the value bound to name.
func (c Captures) Lookup(name string) (string, bool) {
	for _, kv := range c {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return "", false
}
