package jobs

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf2docx/internal/convert"
)

func pending(scanned int) *convert.Pending {
	return &convert.Pending{State: convert.StateAwaitingChoice, ScannedPageCount: scanned}
}

func TestStoreAddGetRemove(t *testing.T) {
	s := NewStore(4)

	job := s.Add("scan.pdf", pending(2))
	_, err := uuid.Parse(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "scan.pdf", job.Source)
	assert.False(t, job.CreatedAt.IsZero())

	got, err := s.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Pending.ScannedPageCount)

	assert.True(t, s.Remove(job.ID))
	assert.False(t, s.Remove(job.ID))

	_, err = s.Get(job.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, s.Len())
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	s := NewStore(2)

	a := s.Add("a.pdf", pending(1))
	b := s.Add("b.pdf", pending(1))

	// touching a makes b the eviction candidate
	_, err := s.Get(a.ID)
	require.NoError(t, err)

	c := s.Add("c.pdf", pending(1))

	_, err = s.Get(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{c.ID, a.ID}, s.IDs())
	assert.Equal(t, Stats{Pending: 2, Capacity: 2, Evicted: 1}, s.Stats())
}

func TestStoreDefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, NewStore(0).Stats().Capacity)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore(8)
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			job := s.Add(fmt.Sprintf("%d.pdf", i), pending(i))
			_, _ = s.Get(job.ID)
			if i%2 == 0 {
				s.Remove(job.ID)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, s.Len(), 8)
	assert.Len(t, s.IDs(), s.Len())
}

func TestStoreListDoesNotTouch(t *testing.T) {
	s := NewStore(2)
	a := s.Add("a.pdf", pending(1))
	b := s.Add("b.pdf", pending(1))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)

	s.Add("c.pdf", pending(1))
	_, err := s.Get(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
