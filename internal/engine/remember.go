package engine

import (
	"reflect"

	"github.com/petrijr/flowtree/pkg/api"
)

// rememberedNode caches the result of a computation for as long as the
// node keeps asking for it with the same key, type and inputs.
type rememberedNode struct {
	key        string
	resultType reflect.Type
	inputs     []any
	value      any
}

func (n *Node) remember(key string, resultType reflect.Type, inputs []any, calc func() any) any {
	if prev, dup := n.remembered.findStaging(func(r *rememberedNode) bool { return r.key == key }); dup {
		if prev.resultType != resultType {
			panic(api.Usagef(api.ErrRememberShapeMismatch,
				"remember key %q used for %v and %v by %s in one pass", key, prev.resultType, resultType, n.id))
		}
		panic(api.Usagef(api.ErrDuplicateRemember,
			"remember key %q used more than once by %s in one pass", key, n.id))
	}

	r, _ := n.remembered.retainOrCreate(
		func(r *rememberedNode) bool {
			return r.key == key && r.resultType == resultType && equalInputs(r.inputs, inputs)
		},
		func() *rememberedNode {
			return &rememberedNode{key: key, resultType: resultType, inputs: inputs, value: calc()}
		},
	)
	return r.value
}
