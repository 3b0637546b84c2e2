package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"disk":   NewDiskStore(t.TempDir()),
	}
}

func TestStore_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "lifeos:u1:selected")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "lifeos:u1:selected", []byte(`"s1"`)))
			v, err := s.Get(ctx, "lifeos:u1:selected")
			require.NoError(t, err)
			assert.Equal(t, `"s1"`, string(v))

			require.NoError(t, s.Set(ctx, "lifeos:u1:selected", []byte(`"s2"`)))
			v, err = s.Get(ctx, "lifeos:u1:selected")
			require.NoError(t, err)
			assert.Equal(t, `"s2"`, string(v))

			require.NoError(t, s.Remove(ctx, "lifeos:u1:selected"))
			_, err = s.Get(ctx, "lifeos:u1:selected")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, s.Remove(ctx, "lifeos:u1:never-set"))
		})
	}
}

func TestStore_KeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "lifeos:alice:selected", []byte(`"a"`)))
			require.NoError(t, s.Set(ctx, "lifeos:bob:selected", []byte(`"b"`)))

			v, err := s.Get(ctx, "lifeos:alice:selected")
			require.NoError(t, err)
			assert.Equal(t, `"a"`, string(v))
		})
	}
}

func TestDiskStore_AwkwardKeys(t *testing.T) {
	ctx := context.Background()
	s := NewDiskStore(t.TempDir())
	for _, key := range []string{"lifeos:a/b:selected", "lifeos::x", "lifeos:..:x", "lifeos:%25:x"} {
		require.NoError(t, s.Set(ctx, key, []byte("v")), key)
		v, err := s.Get(ctx, key)
		require.NoError(t, err, key)
		assert.Equal(t, "v", string(v))
	}
}

func TestDiskStore_PathRoundTrip(t *testing.T) {
	for _, key := range []string{"lifeos:u1:selected", "lifeos:a/b:x", "lifeos::x", "lifeos:.:x", "lifeos:%41:x"} {
		assert.Equal(t, key, pathToKey(keyToPath(key)))
	}
}

func TestDiskStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, NewDiskStore(dir).Set(ctx, "lifeos:current-user", []byte(`"u1"`)))

	v, err := NewDiskStore(dir).Get(ctx, "lifeos:current-user")
	require.NoError(t, err)
	assert.Equal(t, `"u1"`, string(v))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var ids []string
	found, err := GetJSON(ctx, s, "k", &ids)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, s, "k", []string{"a", "b"}))
	found, err = GetJSON(ctx, s, "k", &ids)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, s.Set(ctx, "bad", []byte("{")))
	_, err = GetJSON(ctx, s, "bad", &ids)
	assert.Error(t, err)
	assert.Equal(t, 2, s.Len())
}
