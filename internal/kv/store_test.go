package kv

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOnly(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestBolt(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func exerciseStore(t *testing.T, s *Store) {
	t.Helper()

	_, ok := s.Get("missing")
	assert.False(t, ok)

	require.NoError(t, s.Set("suasor_a", "1"))
	require.NoError(t, s.Set("suasor_b", "2"))
	require.NoError(t, s.Set("other", "3"))

	v, ok := s.Get("suasor_a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	keys := s.Keys("suasor_")
	sort.Strings(keys)
	assert.Equal(t, []string{"suasor_a", "suasor_b"}, keys)

	require.NoError(t, s.Remove("suasor_a"))
	require.NoError(t, s.Remove("suasor_a"))
	_, ok = s.Get("suasor_a")
	assert.False(t, ok)

	require.NoError(t, s.Clear())
	_, ok = s.Get("other")
	assert.False(t, ok)
	assert.Empty(t, s.Keys(""))
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("suasor_recent_searches", `["dune"]`))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	v, ok := s.Get("suasor_recent_searches")
	require.True(t, ok)
	assert.Equal(t, `["dune"]`, v)
}
