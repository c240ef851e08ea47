package engine

// activeStagingList holds what a node declared on its previous pass
// (active) and what it has declared so far on the current one (staging).
// Both slices keep declaration order.
type activeStagingList[T any] struct {
	active  []T
	staging []T
}

// retainOrCreate moves the first active item matching match to staging, or
// appends the result of create when there is none.
func (l *activeStagingList[T]) retainOrCreate(match func(T) bool, create func() T) (item T, created bool) {
	for i, candidate := range l.active {
		if match(candidate) {
			l.active = append(l.active[:i:i], l.active[i+1:]...)
			l.staging = append(l.staging, candidate)
			return candidate, false
		}
	}
	item = create()
	l.staging = append(l.staging, item)
	return item, true
}

// findStaging returns the staged item matching match, if any.
func (l *activeStagingList[T]) findStaging(match func(T) bool) (T, bool) {
	for _, item := range l.staging {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// commit tears down every item that was not re-declared and makes staging
// the new active list.
func (l *activeStagingList[T]) commit(tearDown func(T)) {
	dropped := l.active
	l.active, l.staging = l.staging, nil
	if tearDown != nil {
		for _, item := range dropped {
			tearDown(item)
		}
	}
}

// all returns active items followed by staged ones. Outside a render pass
// staging is empty.
func (l *activeStagingList[T]) all() []T {
	out := make([]T, 0, len(l.active)+len(l.staging))
	out = append(out, l.active...)
	return append(out, l.staging...)
}
