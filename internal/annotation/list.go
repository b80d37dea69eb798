package annotation

// List owns the annotations of the loaded image and the selection. The
// selection is held as an annotation ID, never as a second live reference,
// so removing the selected annotation cannot leave a dangling pointer.
type List struct {
	items    []*Annotation
	nextID   int
	selected int // 0 = nothing selected
}

// NewList creates an empty annotation list.
func NewList() *List {
	return &List{nextID: 1}
}

// Add assigns an ID and appends the annotation, returning it.
func (l *List) Add(a *Annotation) *Annotation {
	a.ID = l.nextID
	l.nextID++
	l.items = append(l.items, a)
	return a
}

// Remove deletes an annotation by ID. A selection pointing at the removed
// annotation is cleared.
func (l *List) Remove(id int) bool {
	for i, a := range l.items {
		if a.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			if l.selected == id {
				l.selected = 0
			}
			return true
		}
	}
	return false
}

// Get returns the annotation with the given ID, or nil.
func (l *List) Get(id int) *Annotation {
	for _, a := range l.items {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Items returns the annotations in draw order (first drawn first).
func (l *List) Items() []*Annotation {
	return l.items
}

// Len returns the number of annotations.
func (l *List) Len() int {
	return len(l.items)
}

// Clear removes all annotations and the selection.
func (l *List) Clear() {
	l.items = nil
	l.selected = 0
}

// Select marks an annotation as selected; Select(0) clears.
func (l *List) Select(id int) {
	if id != 0 && l.Get(id) == nil {
		return
	}
	l.selected = id
}

// SelectedID returns the selected annotation's ID, 0 when none.
func (l *List) SelectedID() int {
	return l.selected
}

// Selected returns the selected annotation, or nil.
func (l *List) Selected() *Annotation {
	if l.selected == 0 {
		return nil
	}
	return l.Get(l.selected)
}

// TopmostAt walks the list last-to-first (topmost drawn first) and returns
// the first annotation for which hit reports true, so the most recently
// added of overlapping annotations wins ties.
func (l *List) TopmostAt(hit func(*Annotation) bool) *Annotation {
	for i := len(l.items) - 1; i >= 0; i-- {
		if hit(l.items[i]) {
			return l.items[i]
		}
	}
	return nil
}
