package badgerkv_test

import (
	"fmt"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplstream/internal/storage"
	"simplstream/internal/storage/badgerkv"
)

func openInMemory(t *testing.T) *badgerkv.Store {
	t.Helper()
	cfg := badgerkv.InMemoryConfig()
	cfg.ConflictRetries = 100
	s, err := badgerkv.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := badgerkv.Open(badgerkv.Config{})
	assert.Error(t, err)
}

func TestSetGetRemove(t *testing.T) {
	s := openInMemory(t)

	_, ok, err := s.Get(storage.KeyPreferredServer)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(storage.KeyPreferredServer, "vidsrc"))
	v, ok, err := s.Get(storage.KeyPreferredServer)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "vidsrc", v)

	require.NoError(t, s.Remove(storage.KeyPreferredServer))
	_, ok, err = s.Get(storage.KeyPreferredServer)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentMutationsAreNotLost(t *testing.T) {
	s := openInMemory(t)
	const writers = 16

	var wg conc.WaitGroup
	for i := 0; i < writers; i++ {
		i := i
		wg.Go(func() {
			err := storage.MutateJSON(s, storage.KeyPinnedChannels, func() map[string][]string {
				return map[string][]string{}
			}, func(doc map[string][]string) (map[string][]string, error) {
				doc["p1"] = append(doc["p1"], fmt.Sprintf("channel-%d", i))
				return doc, nil
			})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	var doc map[string][]string
	require.NoError(t, storage.ReadJSON(s, storage.KeyPinnedChannels, &doc))
	assert.Len(t, doc["p1"], writers)
}

func TestPersistentReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := badgerkv.Open(badgerkv.DefaultConfig(dir))
	require.NoError(t, err)
	require.NoError(t, s.Set(storage.KeyTheme, "dark"))
	require.NoError(t, s.Close())

	reopened, err := badgerkv.Open(badgerkv.DefaultConfig(dir))
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(storage.KeyTheme)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}
