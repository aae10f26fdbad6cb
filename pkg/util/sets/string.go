package sets

type Empty struct{}

// Set is a set of comparable items, implemented via map[T]struct{} for minimal memory consumption.
// Insertion order is remembered so List returns items in the order they were first inserted.
type Set[T comparable] struct {
	items map[T]Empty
	order []T
}

// String is a set of strings.
type String = Set[string]

// New creates a Set from a list of values.
func New[T comparable](items ...T) *Set[T] {
	return (&Set[T]{}).Insert(items...)
}

// NewString creates a String set from a list of values.
func NewString(items ...string) *String {
	return New(items...)
}

// Insert adds items to the set.
func (s *Set[T]) Insert(items ...T) *Set[T] {
	if s.items == nil {
		s.items = make(map[T]Empty, len(items))
	}
	for _, insert := range items {
		if _, ok := s.items[insert]; ok {
			continue
		}
		s.items[insert] = Empty{}
		s.order = append(s.order, insert)
	}
	return s
}

// Add inserts item and reports whether it was not yet contained.
func (s *Set[T]) Add(item T) bool {
	if s.Has(item) {
		return false
	}
	s.Insert(item)
	return true
}

// Has returns true if and only if item is contained in the set.
func (s *Set[T]) Has(item T) bool {
	_, ok := s.items[item]
	return ok
}

// HasAll returns true if and only if all items are contained in the set.
func (s *Set[T]) HasAll(items ...T) bool {
	for _, item := range items {
		if !s.Has(item) {
			return false
		}
	}
	return true
}

// List returns the items in insertion order.
func (s *Set[T]) List() []T {
	return append([]T(nil), s.order...)
}

// Len returns the size of the set.
func (s *Set[T]) Len() int {
	return len(s.items)
}
