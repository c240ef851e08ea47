package flowtree

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrijr/flowtree/pkg/api"
)

func TestSnapshot_RestoresTree(t *testing.T) {
	r := startLocal(t, newParent(newCounter("Child"), nil), 1, Options{})
	r.Rendering().Left.Inc()
	r.Rendering().Right.Emit("saved")
	awaitRendering(t, r, func(s parentScreen) bool { return s.Left.Count == 2 && len(s.Log) == 1 })

	data, err := r.Runtime.Current().Snapshot.Encode()
	require.NoError(t, err)
	r.Stop()

	tree, err := ParseTreeSnapshot(data)
	require.NoError(t, err)
	restored := startLocal(t, newParent(newCounter("Child"), nil), 1, Options{InitialSnapshot: tree})

	got := restored.Rendering()
	assert.Equal(t, 2, got.Left.Count)
	assert.Equal(t, 10, got.Right.Count)
	assert.Equal(t, []string{"right:saved"}, got.Log)
}

func TestSnapshot_UnsnapshottableChildStartsFresh(t *testing.T) {
	child := newCounter("Ephemeral")
	child.Unsnapshottable = true

	r := startLocal(t, newParent(child, nil), 1, Options{})
	r.Rendering().Left.Inc()
	awaitRendering(t, r, func(s parentScreen) bool { return s.Left.Count == 2 })

	data, err := r.Runtime.Current().Snapshot.Encode()
	require.NoError(t, err)
	tree, err := ParseTreeSnapshot(data)
	require.NoError(t, err)

	restored := startLocal(t, newParent(child, nil), 1, Options{InitialSnapshot: tree})
	assert.Equal(t, 1, restored.Rendering().Left.Count)
}

func TestSnapshot_StoreRoundTrip(t *testing.T) {
	store := NewInMemorySnapshotStore()
	opts := Options{Store: store, StoreKey: "counter-1"}

	r := startLocal(t, newCounter("Counter"), 0, opts)
	r.Rendering().Inc()
	r.Rendering().Inc()
	awaitRendering(t, r, func(s counterScreen) bool { return s.Count == 2 })
	r.Stop()

	_, err := store.Load(context.Background(), "counter-1")
	require.NoError(t, err)

	restored := startLocal(t, newCounter("Counter"), 0, opts)
	assert.Equal(t, 2, restored.Rendering().Count)
}

func TestSnapshot_StoreKeyDefaultsToIdentity(t *testing.T) {
	store := NewInMemorySnapshotStore()
	startLocal(t, newCounter("Counter"), 5, Options{Store: store})

	_, err := store.Load(context.Background(), newCounter("Counter").Identity().String())
	assert.NoError(t, err)
}

// failingStore fails every operation.
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) Save(context.Context, string, []byte) error   { return errStoreDown }
func (failingStore) Load(context.Context, string) ([]byte, error) { return nil, errStoreDown }
func (failingStore) Delete(context.Context, string) error         { return errStoreDown }

func TestSnapshot_StoreFailuresAreNotFatal(t *testing.T) {
	r := startLocal(t, newCounter("Counter"), 0, Options{Store: failingStore{}})
	r.Rendering().Inc()
	awaitRendering(t, r, func(s counterScreen) bool { return s.Count == 1 })
	assert.NoError(t, r.Runtime.Err())
}

// gatedStore holds every Save until release is closed.
type gatedStore struct {
	SnapshotStore
	release chan struct{}
}

func (g gatedStore) Save(ctx context.Context, key string, data []byte) error {
	<-g.release
	return g.SnapshotStore.Save(ctx, key, data)
}

func TestSnapshot_SlowStoreDoesNotDelayTurns(t *testing.T) {
	mem := NewInMemorySnapshotStore()
	store := gatedStore{SnapshotStore: mem, release: make(chan struct{})}
	r := startLocal(t, newCounter("Counter"), 0, Options{Store: store, StoreKey: "slow"})

	for i := 0; i < 3; i++ {
		r.Rendering().Inc()
	}
	awaitRendering(t, r, func(s counterScreen) bool { return s.Count == 3 })

	close(store.release)
	r.Stop()

	data, err := mem.Load(context.Background(), "slow")
	require.NoError(t, err)
	tree, err := ParseTreeSnapshot(data)
	require.NoError(t, err)
	n, err := RestoreGob[int](tree.Own())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSnapshot_CorruptStoredSnapshotIsIgnored(t *testing.T) {
	store := NewInMemorySnapshotStore()
	require.NoError(t, store.Save(context.Background(), "k", []byte{0xff}))

	r := startLocal(t, newCounter("Counter"), 4, Options{Store: store, StoreKey: "k"})
	assert.Equal(t, 4, r.Rendering().Count)
}

func TestSnapshot_CorruptStoredChildSectionIsIgnored(t *testing.T) {
	store := NewInMemorySnapshotStore()
	// A valid empty own block followed by one child whose id block claims
	// far more bytes than there are.
	corrupt := []byte{0, 0, 0, 0, 0, 0, 0, 1, 0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0}
	require.NoError(t, store.Save(context.Background(), "k", corrupt))

	r := startLocal(t, newParent(newCounter("Child"), nil), 3, Options{Store: store, StoreKey: "k"})
	assert.Equal(t, 3, r.Rendering().Left.Count)
	assert.Equal(t, 30, r.Rendering().Right.Count)
}

func TestSnapshot_EncodeErrorIsDeferred(t *testing.T) {
	bad := errors.New("cannot encode")
	w := newCounter("Counter")
	w.SnapshotState = func(int) *Snapshot {
		return LazySnapshot(func() ([]byte, error) { return nil, bad })
	}

	r := startLocal(t, w, 0, Options{})
	_, err := r.Runtime.Current().Snapshot.Encode()
	assert.ErrorIs(t, err, bad)
	assert.NoError(t, r.Runtime.Err())
}

func TestRestoreGob(t *testing.T) {
	type state struct {
		Name  string
		Items []int
	}
	in := state{Name: "cart", Items: []int{1, 2}}

	out, err := RestoreGob[state](GobSnapshot(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	zero, err := RestoreGob[state](nil)
	require.NoError(t, err)
	assert.Equal(t, state{}, zero)

	_, err = RestoreGob[state](api.SnapshotOf([]byte("not gob")))
	assert.Error(t, err)
}
