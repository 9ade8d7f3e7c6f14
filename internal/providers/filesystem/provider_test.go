package filesystem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsgate/fsgate/internal/atomicwrite"
	"github.com/fsgate/fsgate/internal/continuation"
	"github.com/fsgate/fsgate/internal/infrastructure/logging"
	"github.com/fsgate/fsgate/internal/pathguard"
)

// newTestOps builds operation dependencies rooted in a fresh temp sandbox.
func newTestOps(t *testing.T, budgetBytes int) (*FilesystemOps, string) {
	t.Helper()
	root := t.TempDir()
	guard, err := pathguard.NewSandbox(root)
	require.NoError(t, err)
	log := logging.NewNop()
	return &FilesystemOps{
		Guard:          guard,
		Tokens:         continuation.New(),
		Writer:         atomicwrite.New(log),
		Log:            log,
		BudgetBytes:    budgetBytes,
		BudgetFraction: 0.9,
	}, root
}

func newTestProvider(t *testing.T, budgetBytes int) (*Provider, string) {
	t.Helper()
	ops, root := newTestOps(t, budgetBytes)
	return New(ops), root
}

func TestDefinitionListsAllTools(t *testing.T) {
	p, _ := newTestProvider(t, 1<<20)

	def := p.Definition()
	assert.Equal(t, "filesystem", def.ID)

	ids := map[string]bool{}
	for _, tool := range def.Tools {
		assert.False(t, ids[tool.ID], "duplicate tool id %s", tool.ID)
		ids[tool.ID] = true
	}

	for _, want := range []string{
		"filesystem.read",
		"filesystem.list",
		"filesystem.search",
		"filesystem.find",
		"filesystem.write",
		"filesystem.stat",
		"filesystem.exists",
		"filesystem.mkdir",
		"filesystem.delete",
		"filesystem.move",
		"filesystem.copy",
		"filesystem.read_structured",
	} {
		assert.True(t, ids[want], "missing tool %s", want)
	}
}

func TestExecuteDispatchesByToolID(t *testing.T) {
	p, _ := newTestProvider(t, 1<<20)

	res, err := p.Execute(context.Background(), "filesystem.exists",
		map[string]interface{}{"path": "nothing.txt"}, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, false, res.Data["exists"])
}

func TestExecuteUnknownTool(t *testing.T) {
	p, _ := newTestProvider(t, 1<<20)

	res, err := p.Execute(context.Background(), "filesystem.bogus", nil, nil)
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, "unknown tool")
}

// Every handler dispatched through Execute covers the same ground, so
// result-shape checks live in the per-operation test files.
