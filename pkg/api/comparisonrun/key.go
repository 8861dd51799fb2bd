package comparisonrun

// Key identifies a single comparison case within a run. Case is the file stem
// of the original source unit, e.g. "challenge3" for challenge3.js.
type Key struct {
	Case string
}

func (k Key) String() string {
	return k.Case
}
