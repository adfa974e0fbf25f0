package todos

import "sort"

// ProcessingSet holds the ids with a mutation in flight.
type ProcessingSet map[int]struct{}

func (s ProcessingSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s ProcessingSet) Len() int { return len(s) }

// IDs returns the members in ascending order.
func (s ProcessingSet) IDs() []int {
	out := make([]int, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func (s ProcessingSet) add(id int)    { s[id] = struct{}{} }
func (s ProcessingSet) remove(id int) { delete(s, id) }

func (s ProcessingSet) clone() ProcessingSet {
	out := make(ProcessingSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}
