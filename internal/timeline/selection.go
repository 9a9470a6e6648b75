package timeline

// Selection is the set of selected clips plus the primary clip that drives
// the properties panel.
type Selection struct {
	ids     map[string]struct{}
	order   []string
	primary string
}

// NewSelection creates an empty selection
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// SelectClip updates the selection the way a click does:
//   - addToSelection toggles id in or out (shift-click)
//   - setPrimaryOnly keeps the current set and makes id the primary
//   - otherwise the selection collapses to id alone
//
// An empty id with neither flag clears the selection.
func (s *Selection) SelectClip(id string, addToSelection, setPrimaryOnly bool) {
	switch {
	case setPrimaryOnly:
		if id == "" {
			return
		}
		s.add(id)
		s.primary = id

	case addToSelection:
		if id == "" {
			return
		}
		if s.IsSelected(id) {
			s.drop(id)
			return
		}
		s.add(id)
		s.primary = id

	default:
		s.Clear()
		if id != "" {
			s.add(id)
			s.primary = id
		}
	}
}

// Clear empties the selection
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
	s.order = nil
	s.primary = ""
}

// IsSelected reports whether id is selected
func (s *Selection) IsSelected(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// SelectedIDs returns the selection in the order clips were added
func (s *Selection) SelectedIDs() []string {
	return append([]string(nil), s.order...)
}

// Primary returns the primary clip id, or ""
func (s *Selection) Primary() string {
	return s.primary
}

// Len returns the number of selected clips
func (s *Selection) Len() int {
	return len(s.order)
}

func (s *Selection) add(id string) {
	if s.IsSelected(id) {
		return
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *Selection) drop(id string) {
	if !s.IsSelected(id) {
		return
	}
	delete(s.ids, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.primary == id {
		s.primary = ""
		if n := len(s.order); n > 0 {
			s.primary = s.order[n-1]
		}
	}
}
