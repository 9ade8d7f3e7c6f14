package filesystem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStructuredJSON(t *testing.T) {
	ops, root := newTestOps(t, 1<<20)
	formats := &FormatsOps{FilesystemOps: ops}
	writeTestFile(t, root, "cfg.json", `{"name":"fsgate","port":8080}`)

	res, err := formats.ReadStructured(context.Background(),
		map[string]interface{}{"path": "cfg.json"}, nil)
	require.NoError(t, err)
	require.True(t, res.Success, "error: %v", res.Error)
	assert.Equal(t, "json", res.Data["format"])

	doc := res.Data["data"].(map[string]interface{})
	assert.Equal(t, "fsgate", doc["name"])
}

func TestReadStructuredYAML(t *testing.T) {
	ops, root := newTestOps(t, 1<<20)
	formats := &FormatsOps{FilesystemOps: ops}
	writeTestFile(t, root, "cfg.yaml", "name: fsgate\nitems:\n  - one\n  - two\n")

	res, err := formats.ReadStructured(context.Background(),
		map[string]interface{}{"path": "cfg.yaml"}, nil)
	require.NoError(t, err)
	require.True(t, res.Success, "error: %v", res.Error)
	assert.Equal(t, "yaml", res.Data["format"])
}

func TestReadStructuredTOML(t *testing.T) {
	ops, root := newTestOps(t, 1<<20)
	formats := &FormatsOps{FilesystemOps: ops}
	writeTestFile(t, root, "cfg.toml", "title = \"fsgate\"\n\n[server]\nport = 8080\n")

	res, err := formats.ReadStructured(context.Background(),
		map[string]interface{}{"path": "cfg.toml"}, nil)
	require.NoError(t, err)
	require.True(t, res.Success, "error: %v", res.Error)

	doc := res.Data["data"].(map[string]interface{})
	assert.Equal(t, "fsgate", doc["title"])
}

func TestReadStructuredCSV(t *testing.T) {
	ops, root := newTestOps(t, 1<<20)
	formats := &FormatsOps{FilesystemOps: ops}
	writeTestFile(t, root, "data.csv", "name,age\nalice,30\nbob,25\n")

	res, err := formats.ReadStructured(context.Background(),
		map[string]interface{}{"path": "data.csv"}, nil)
	require.NoError(t, err)
	require.True(t, res.Success, "error: %v", res.Error)

	rows := res.Data["data"].([]interface{})
	require.Len(t, rows, 2)
	first := rows[0].(map[string]interface{})
	assert.Equal(t, "alice", first["name"])
	assert.Equal(t, "30", first["age"])
}

func TestReadStructuredFormatOverride(t *testing.T) {
	ops, root := newTestOps(t, 1<<20)
	formats := &FormatsOps{FilesystemOps: ops}
	writeTestFile(t, root, "data.txt", `[1,2,3]`)

	res, err := formats.ReadStructured(context.Background(),
		map[string]interface{}{"path": "data.txt", "format": "json"}, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
}

func TestReadStructuredMalformed(t *testing.T) {
	ops, root := newTestOps(t, 1<<20)
	formats := &FormatsOps{FilesystemOps: ops}
	writeTestFile(t, root, "bad.json", `{"unterminated`)

	res, err := formats.ReadStructured(context.Background(),
		map[string]interface{}{"path": "bad.json"}, nil)
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, "parse")
}
