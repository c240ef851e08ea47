package api

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type tracingInterceptor struct {
	NoopInterceptor
	name string
	mu   *sync.Mutex
	log  *[]string
}

func (i tracingInterceptor) add(s string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	*i.log = append(*i.log, s)
}

func (i tracingInterceptor) OnRender(props, state any, proceed func(props, state any) any, _ *Session) any {
	i.add(i.name + ":before")
	r := proceed(props, state)
	i.add(i.name + ":after")
	return r.(string) + "+" + i.name
}

func (i tracingInterceptor) OnSessionStarted(context.Context, *Session) {
	i.add(i.name + ":started")
}

func TestChainInterceptors_FirstIsOutermost(t *testing.T) {
	var mu sync.Mutex
	var log []string
	a := tracingInterceptor{name: "a", mu: &mu, log: &log}
	b := tracingInterceptor{name: "b", mu: &mu, log: &log}

	chained := ChainInterceptors(a, nil, b)
	s := &Session{ID: 1, Identity: NewIdentity("w")}

	chained.OnSessionStarted(context.Background(), s)
	r := chained.OnRender("p", "s", func(props, state any) any {
		log = append(log, "render")
		return "r"
	}, s)

	require.Equal(t, "r+b+a", r)
	require.Equal(t, []string{
		"a:started", "b:started",
		"a:before", "b:before", "render", "b:after", "a:after",
	}, log)
}

func TestChainInterceptors_EmptyAndSingle(t *testing.T) {
	require.Equal(t, NoopInterceptor{}, ChainInterceptors())
	m := &BasicMetrics{}
	require.Same(t, m, ChainInterceptors(nil, m))
}

func TestSession_Path(t *testing.T) {
	root := &Session{ID: 1, Identity: NewIdentity("root")}
	child := &Session{ID: 2, Identity: NewIdentity("child"), Key: "k", Parent: root}
	require.Equal(t, `Identity(root) / Identity(child)[key="k"]`, child.Path())
}
