package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKeeper_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	k := NewFileKeeper(path)

	require.NoError(t, k.Store([]byte(`{"duration_format":2}`)))

	blob, err := k.Load()
	require.NoError(t, err)
	assert.Equal(t, `{"duration_format":2}`, string(blob))
}

func TestFileKeeper_MissingFileIsNotAnError(t *testing.T) {
	k := NewFileKeeper(filepath.Join(t.TempDir(), "absent.json"))

	blob, err := k.Load()
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestFileKeeper_StoreReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	k := NewFileKeeper(path)

	require.NoError(t, k.Store([]byte("first")))
	require.NoError(t, k.Store([]byte("second")))

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(blob))
}

func TestMemoryKeeper(t *testing.T) {
	k := &MemoryKeeper{}

	blob, err := k.Load()
	require.NoError(t, err)
	assert.Nil(t, blob)

	in := []byte("payload")
	require.NoError(t, k.Store(in))
	in[0] = 'X'

	blob, err = k.Load()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(blob), "stored blob must be a copy")
}
