package session

import (
	"sync"
	"testing"
	"time"

	"botgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetReturnsIsolatedCopy(t *testing.T) {
	store := NewStore()
	id := store.NewID()
	store.Replace(id, models.NewSessionState(2))

	first, ok := store.Get(id)
	require.True(t, ok)
	first.Attempts[models.StageText] = 0
	first.Stage = models.StageDenied

	second, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, models.StageText, second.Stage)
	assert.Equal(t, 2, second.Attempts[models.StageText])
}

func TestStoreDelete(t *testing.T) {
	store := NewStore()
	id := store.NewID()
	store.Replace(id, models.NewSessionState(2))
	store.Delete(id)

	_, ok := store.Get(id)
	assert.False(t, ok)
	assert.Zero(t, store.Len())
}

func TestStoreSweep(t *testing.T) {
	store := NewStore()
	stale := models.NewSessionState(2)
	stale.UpdatedAt = time.Now().Add(-time.Hour)
	store.mu.Lock()
	store.sessions["stale"] = stale
	store.mu.Unlock()
	store.Replace("fresh", models.NewSessionState(2))

	removed := store.Sweep(30 * time.Minute)
	assert.Equal(t, 1, removed)
	_, ok := store.Get("fresh")
	assert.True(t, ok)
	_, ok = store.Get("stale")
	assert.False(t, ok)
}

func TestStoreConcurrentReplace(t *testing.T) {
	store := NewStore()
	id := store.NewID()
	store.Replace(id, models.NewSessionState(2))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			state, ok := store.Get(id)
			if ok {
				// The copy must always be internally consistent.
				assert.NotNil(t, state.Attempts)
			}
		}()
		go func() {
			defer wg.Done()
			store.Replace(id, models.NewSessionState(2))
		}()
	}
	wg.Wait()
}
