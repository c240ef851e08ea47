package engine

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
)

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// equal compares props, states and remember inputs by value. Unexported
// fields take part in the comparison. Values go-cmp cannot compare count
// as different.
func equal(a, b any) (eq bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return cmp.Equal(a, b, exportAll)
}

func equalInputs(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
