package search

// Selection is the set of selected filter ids. It remembers insertion order
// for display; membership is what matching uses.
type Selection struct {
	ids []string
	set map[string]struct{}
}

// NewSelection creates a selection holding ids, ignoring duplicates and
// empty ids.
func NewSelection(ids ...string) *Selection {
	s := &Selection{set: make(map[string]struct{})}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

// Has reports whether id is selected. A nil selection has nothing.
func (s *Selection) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.set[id]
	return ok
}

// HasAny reports whether any of ids is selected.
func (s *Selection) HasAny(ids ...string) bool {
	for _, id := range ids {
		if s.Has(id) {
			return true
		}
	}
	return false
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns a copy of the selected ids in insertion order.
func (s *Selection) IDs() []string {
	if s == nil || len(s.ids) == 0 {
		return nil
	}
	return append([]string(nil), s.ids...)
}

// Clone returns an independent copy.
func (s *Selection) Clone() *Selection {
	return NewSelection(s.IDs()...)
}

func (s *Selection) add(id string) bool {
	if id == "" || s.Has(id) {
		return false
	}
	s.ids = append(s.ids, id)
	s.set[id] = struct{}{}
	return true
}

func (s *Selection) remove(id string) bool {
	if !s.Has(id) {
		return false
	}
	delete(s.set, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

// toggle removes id when selected and adds it otherwise.
func (s *Selection) toggle(id string) {
	if !s.remove(id) {
		s.add(id)
	}
}
