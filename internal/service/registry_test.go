package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsgate/fsgate/internal/shared/types"
)

type fakeProvider struct {
	def      types.Service
	lastTool string
	result   *types.Result
	err      error
}

func (f *fakeProvider) Definition() types.Service { return f.def }

func (f *fakeProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	f.lastTool = toolID
	return f.result, f.err
}

func okResult() *types.Result {
	return &types.Result{Success: true, Data: map[string]interface{}{"ok": true}}
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry(nil)
	p := &fakeProvider{def: types.Service{ID: "filesystem", Category: types.CategoryFilesystem}}

	require.NoError(t, r.Register(p))

	got, ok := r.Get("filesystem")
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestRegisterEmptyID(t *testing.T) {
	r := NewRegistry(nil)
	err := r.Register(&fakeProvider{def: types.Service{}})
	assert.Error(t, err)
}

func TestUnregister(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&fakeProvider{def: types.Service{ID: "filesystem"}}))

	r.Unregister("filesystem")
	_, ok := r.Get("filesystem")
	assert.False(t, ok)
}

func TestListFiltersByCategory(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&fakeProvider{def: types.Service{ID: "filesystem", Category: types.CategoryFilesystem}}))
	require.NoError(t, r.Register(&fakeProvider{def: types.Service{ID: "system", Category: types.CategorySystem}}))

	assert.Len(t, r.List(nil), 2)

	fs := types.CategoryFilesystem
	filtered := r.List(&fs)
	require.Len(t, filtered, 1)
	assert.Equal(t, "filesystem", filtered[0].ID)
}

func TestExecuteRoutesToProvider(t *testing.T) {
	r := NewRegistry(nil)
	p := &fakeProvider{
		def:    types.Service{ID: "filesystem"},
		result: okResult(),
	}
	require.NoError(t, r.Register(p))

	res, err := r.Execute(context.Background(), "filesystem.read",
		map[string]interface{}{"path": "x"}, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "filesystem.read", p.lastTool, "provider receives the full tool ID")
}

func TestExecuteInvalidToolID(t *testing.T) {
	r := NewRegistry(nil)

	res, err := r.Execute(context.Background(), "noseparator", nil, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Success)
}

func TestExecuteUnknownService(t *testing.T) {
	r := NewRegistry(nil)

	res, err := r.Execute(context.Background(), "ghost.read", nil, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Contains(t, *res.Error, "service not found")
}
