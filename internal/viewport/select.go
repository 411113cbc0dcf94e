package viewport

import "sync"

// Select subscribes to a derived value of the store. fn runs once with the
// initial value and afterwards only when the selected value changes.
// With a nil store, sel receives nil and fn runs exactly once.
func Select[T comparable](s *Store, sel func(*State) T, fn func(T)) func() {
	return SelectFunc(s, sel, func(a, b T) bool { return a == b }, fn)
}

// SelectFunc is Select with a caller supplied equality, for values such as
// slices that are not comparable with ==.
func SelectFunc[T any](s *Store, sel func(*State) T, equal func(a, b T) bool, fn func(T)) func() {
	var (
		mu     sync.Mutex
		last   T
		primed bool
	)
	// subscribe before the first read so no accepted update slips between them
	unsubscribe := s.Subscribe(func() {
		next := sel(s.Snapshot())
		mu.Lock()
		if primed && equal(last, next) {
			mu.Unlock()
			return
		}
		last, primed = next, true
		mu.Unlock()
		fn(next)
	})

	initial := sel(s.Snapshot())
	mu.Lock()
	if primed {
		// an update already delivered a newer value
		mu.Unlock()
		return unsubscribe
	}
	last, primed = initial, true
	mu.Unlock()
	fn(initial)
	return unsubscribe
}
