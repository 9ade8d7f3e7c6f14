package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultEntries(t *testing.T, res map[string]interface{}) []FileInfo {
	t.Helper()
	raw, ok := res["entries"].([]interface{})
	require.True(t, ok, "entries missing or wrong type")
	out := make([]FileInfo, len(raw))
	for i, v := range raw {
		out[i] = v.(FileInfo)
	}
	return out
}

func TestListSmallDirectory(t *testing.T) {
	ops, root := newTestOps(t, 1<<20)
	dir := &DirectoryOps{FilesystemOps: ops}

	writeTestFile(t, root, "a.txt", "x")
	writeTestFile(t, root, "b.txt", "y")
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))

	res, err := dir.List(context.Background(), map[string]interface{}{"path": "."}, nil)
	require.NoError(t, err)
	require.True(t, res.Success, "error: %v", res.Error)

	entries := resultEntries(t, res.Data)
	require.Len(t, entries, 3)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, "b.txt", entries[1].Name)
	assert.Equal(t, "sub", entries[2].Name)
	assert.True(t, entries[2].IsDir)
	assert.Equal(t, false, res.Data["has_more"])
}

func TestListHiddenFiles(t *testing.T) {
	ops, root := newTestOps(t, 1<<20)
	dir := &DirectoryOps{FilesystemOps: ops}

	writeTestFile(t, root, ".hidden", "x")
	writeTestFile(t, root, "shown.txt", "y")

	res, err := dir.List(context.Background(), map[string]interface{}{"path": "."}, nil)
	require.NoError(t, err)
	require.Len(t, resultEntries(t, res.Data), 1)

	res, err = dir.List(context.Background(),
		map[string]interface{}{"path": ".", "include_hidden": true}, nil)
	require.NoError(t, err)
	require.Len(t, resultEntries(t, res.Data), 2)
}

func TestListLargeDirectoryResumes(t *testing.T) {
	ops, root := newTestOps(t, 2000)
	dir := &DirectoryOps{FilesystemOps: ops}

	var want []string
	for i := 0; i < 1000; i++ {
		name := fmt.Sprintf("entry-%04d.dat", i)
		want = append(want, name)
		writeTestFile(t, root, name, "content")
	}
	sort.Strings(want)

	var got []string
	params := map[string]interface{}{"path": "."}
	calls := 0
	for {
		calls++
		require.Less(t, calls, 1000, "resume loop did not terminate")
		res, err := dir.List(context.Background(), params, nil)
		require.NoError(t, err)
		require.True(t, res.Success, "error: %v", res.Error)

		for _, e := range resultEntries(t, res.Data) {
			got = append(got, e.Name)
		}
		if res.Data["has_more"] == false {
			break
		}
		token, ok := res.Data["continuation_token"].(string)
		require.True(t, ok)
		params = map[string]interface{}{"path": ".", "continuation_token": token}
	}

	assert.Greater(t, calls, 1, "budget should force multiple chunks")
	assert.Equal(t, want, got, "chunks must concatenate to the full sorted listing")
	assert.Equal(t, 0, ops.Tokens.Len())
}

func TestListMissingDirectory(t *testing.T) {
	ops, _ := newTestOps(t, 1<<20)
	dir := &DirectoryOps{FilesystemOps: ops}

	res, err := dir.List(context.Background(), map[string]interface{}{"path": "ghost"}, nil)
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, "not found")
}

func TestListEscapeDenied(t *testing.T) {
	ops, _ := newTestOps(t, 1<<20)
	dir := &DirectoryOps{FilesystemOps: ops}

	res, err := dir.List(context.Background(), map[string]interface{}{"path": "../.."}, nil)
	require.NoError(t, err)
	require.False(t, res.Success)
}
