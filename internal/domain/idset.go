package domain

import "sort"

// IDSet: множество идентификаторов одной стороны связи many-to-many.
type IDSet map[string]struct{}

// NewIDSet собирает множество из списка, пустые значения пропускаются.
func NewIDSet(ids ...string) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add возвращает false, если id уже был в множестве.
func (s IDSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Remove возвращает false, если id отсутствовал.
func (s IDSet) Remove(id string) bool {
	if !s.Has(id) {
		return false
	}
	delete(s, id)
	return true
}

// Sorted возвращает идентификаторы в детерминированном порядке.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s IDSet) Clone() IDSet {
	dst := make(IDSet, len(s))
	for id := range s {
		dst[id] = struct{}{}
	}
	return dst
}
