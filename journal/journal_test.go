package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), DefaultFileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestAppendAndRecent(t *testing.T) {
	j := openTemp(t)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return clock }

	require.NoError(t, j.Append(Entry{Action: "add", Sources: []string{"a.txt"}, Dest: "Docs"}))
	require.NoError(t, j.Append(Entry{Action: "delete", Sources: []string{"b.txt"}, Errors: []string{"boom"}}))
	require.NoError(t, j.Append(Entry{Action: "cleanup"}))

	all, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "cleanup", all[0].Action)
	assert.Equal(t, "delete", all[1].Action)
	assert.Equal(t, []string{"boom"}, all[1].Errors)
	assert.Equal(t, "add", all[2].Action)
	assert.Equal(t, "Docs", all[2].Dest)
	assert.True(t, all[2].Timestamp.Equal(clock))
	assert.NotEmpty(t, all[0].ID)
	assert.NotEqual(t, all[0].ID, all[1].ID)

	two, err := j.Recent(2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestEntriesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(Entry{ID: "fixed", Action: "move"}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	require.NoError(t, j.Append(Entry{Action: "copy"}))

	entries, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "copy", entries[0].Action)
	assert.Equal(t, "fixed", entries[1].ID)
}

func TestRecentEmpty(t *testing.T) {
	entries, err := openTemp(t).Recent(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestNop(t *testing.T) {
	var j Journal = Nop{}
	require.NoError(t, j.Append(Entry{Action: "add"}))
	entries, err := j.Recent(5)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, j.Close())
}
