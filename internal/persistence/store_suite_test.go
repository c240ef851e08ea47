package persistence

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

// SnapshotStoreTestSuite runs the same behavioural checks against every
// SnapshotStore backend. newStore is called once per test with that
// test's T.
type SnapshotStoreTestSuite struct {
	suite.Suite
	newStore func(t *testing.T) SnapshotStore
	store    SnapshotStore
	ctx      context.Context
}

func (s *SnapshotStoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore(s.T())
}

func (s *SnapshotStoreTestSuite) TestLoadMissing() {
	_, err := s.store.Load(s.ctx, "missing")
	s.ErrorIs(err, ErrSnapshotNotFound)
}

func (s *SnapshotStoreTestSuite) TestSaveLoadOverwrite() {
	s.Require().NoError(s.store.Save(s.ctx, "wf-1", []byte{0, 0, 0, 3, 'a', 'b', 'c'}))

	got, err := s.store.Load(s.ctx, "wf-1")
	s.Require().NoError(err)
	s.Equal([]byte{0, 0, 0, 3, 'a', 'b', 'c'}, got)

	s.Require().NoError(s.store.Save(s.ctx, "wf-1", []byte("second")))
	got, err = s.store.Load(s.ctx, "wf-1")
	s.Require().NoError(err)
	s.Equal([]byte("second"), got)
}

func (s *SnapshotStoreTestSuite) TestEmptySnapshotIsStored() {
	s.Require().NoError(s.store.Save(s.ctx, "empty", nil))

	got, err := s.store.Load(s.ctx, "empty")
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *SnapshotStoreTestSuite) TestDelete() {
	s.Require().NoError(s.store.Save(s.ctx, "gone", []byte("x")))
	s.Require().NoError(s.store.Delete(s.ctx, "gone"))

	_, err := s.store.Load(s.ctx, "gone")
	s.ErrorIs(err, ErrSnapshotNotFound)

	// Deleting an absent key is not an error.
	s.NoError(s.store.Delete(s.ctx, "gone"))
}

func (s *SnapshotStoreTestSuite) TestKeysAreIndependent() {
	s.Require().NoError(s.store.Save(s.ctx, "a", []byte("A")))
	s.Require().NoError(s.store.Save(s.ctx, "b", []byte("B")))
	s.Require().NoError(s.store.Delete(s.ctx, "a"))

	got, err := s.store.Load(s.ctx, "b")
	s.Require().NoError(err)
	s.Equal([]byte("B"), got)
}

func (s *SnapshotStoreTestSuite) TestLoadedBytesAreNotAliased() {
	data := []byte("original")
	s.Require().NoError(s.store.Save(s.ctx, "alias", data))
	data[0] = 'X'

	got, err := s.store.Load(s.ctx, "alias")
	s.Require().NoError(err)
	s.Equal([]byte("original"), got)

	got[0] = 'Y'
	again, err := s.store.Load(s.ctx, "alias")
	s.Require().NoError(err)
	s.Equal([]byte("original"), again)
}

func (s *SnapshotStoreTestSuite) TestConcurrentSaves() {
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("concurrent-%d", i)
			s.NoError(s.store.Save(s.ctx, key, []byte(key)))
		}()
	}
	wg.Wait()

	for i := range 8 {
		key := fmt.Sprintf("concurrent-%d", i)
		got, err := s.store.Load(s.ctx, key)
		s.Require().NoError(err)
		s.Equal([]byte(key), got)
	}
}
