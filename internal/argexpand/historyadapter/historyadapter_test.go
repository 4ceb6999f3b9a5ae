package historyadapter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wispshell/wisp/internal/history"
)

func newTestManager(t *testing.T) *history.HistoryManager {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	hm, err := history.NewHistoryManager(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hm.Close() })
	return hm
}

func TestAdapter_AllNewestFirst(t *testing.T) {
	hm := newTestManager(t)
	_, err := hm.StartCommand("echo first", "/tmp", "s1")
	require.NoError(t, err)
	_, err = hm.StartCommand("echo second", "/tmp", "s1")
	require.NoError(t, err)

	a := New(hm)
	all := a.All()
	require.Len(t, all, 2)
	assert.Equal(t, "echo second", all[0])
	assert.Equal(t, "echo first", all[1])
}

func TestAdapter_Size(t *testing.T) {
	hm := newTestManager(t)
	_, err := hm.StartCommand("echo hi", "/tmp", "s1")
	require.NoError(t, err)

	a := New(hm)
	assert.Equal(t, 1, a.Size())
}

func TestAdapter_ItemsAtIndexes(t *testing.T) {
	hm := newTestManager(t)
	_, err := hm.StartCommand("echo one", "/tmp", "s1")
	require.NoError(t, err)
	_, err = hm.StartCommand("echo two", "/tmp", "s1")
	require.NoError(t, err)

	a := New(hm)
	m := a.ItemsAtIndexes([]int{1, 2, 99})
	assert.Equal(t, "echo two", m[1])
	assert.Equal(t, "echo one", m[2])
	_, ok := m[99]
	assert.False(t, ok)
}
