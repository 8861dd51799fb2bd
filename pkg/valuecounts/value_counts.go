// Package valuecounts provides a deterministic frequency counter for integer
// values, used to report distributions (e.g. trace lengths) in run summaries.
package valuecounts

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ValueCounts maps a value to the number of times it was observed. The JSON
// form is an array of {value, count} pairs sorted by value, so serialized
// output is deterministic.
type ValueCounts map[int]int

// Pair stores a single value and its observation count.
type Pair struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

// New creates an empty ValueCounts.
func New() ValueCounts {
	return ValueCounts{}
}

// Count produces a ValueCounts by counting repetitions of values in data.
func Count(data []int) ValueCounts {
	vc := New()
	for _, value := range data {
		vc[value]++
	}
	return vc
}

// Add records one observation of value.
func (vc ValueCounts) Add(value int) {
	vc[value]++
}

// Len returns the number of distinct values observed.
func (vc ValueCounts) Len() int {
	return len(vc)
}

// ToPairs converts this ValueCounts into (value, count) pairs sorted by value.
// An empty ValueCounts yields an empty, non-nil slice.
func (vc ValueCounts) ToPairs() []Pair {
	values := maps.Keys(vc)
	slices.Sort(values)

	pairs := make([]Pair, 0, len(values))
	for _, value := range values {
		pairs = append(pairs, Pair{Value: value, Count: vc[value]})
	}
	return pairs
}

// FromPairs converts (value, count) pairs back into a ValueCounts. A value
// occurring more than once in pairs is an error.
func FromPairs(pairs []Pair) (ValueCounts, error) {
	vc := New()
	for _, pair := range pairs {
		if _, seen := vc[pair.Value]; seen {
			return nil, fmt.Errorf("value occurs multiple times: %d", pair.Value)
		}
		vc[pair.Value] = pair.Count
	}
	return vc, nil
}

func (vc ValueCounts) String() string {
	pairStrings := make([]string, 0, vc.Len())
	for _, pair := range vc.ToPairs() {
		pairStrings = append(pairStrings, fmt.Sprintf("%d: %d", pair.Value, pair.Count))
	}
	return "[" + strings.Join(pairStrings, ", ") + "]"
}

// MarshalJSON implements the json.Marshaler interface.
func (vc ValueCounts) MarshalJSON() ([]byte, error) {
	return json.Marshal(vc.ToPairs())
}

// UnmarshalJSON implements the json.Unmarshaler interface. Existing counts
// are discarded; vc is left unmodified on error.
func (vc *ValueCounts) UnmarshalJSON(data []byte) error {
	var pairs []Pair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}

	counts, err := FromPairs(pairs)
	if err != nil {
		return err
	}

	*vc = counts
	return nil
}
