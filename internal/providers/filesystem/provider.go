package filesystem

import (
	"context"
	"fmt"

	"github.com/fsgate/fsgate/internal/shared/types"
)

// Provider aggregates the filesystem operation groups into one service.
type Provider struct {
	ops *FilesystemOps

	read       *ReadOps
	directory  *DirectoryOps
	search     *SearchOps
	write      *WriteOps
	metadata   *MetadataOps
	operations *OperationsOps
	formats    *FormatsOps

	handlers map[string]handlerFunc
}

type handlerFunc func(ctx context.Context, params map[string]interface{}, callCtx *types.Context) (*types.Result, error)

// New creates the filesystem provider.
func New(ops *FilesystemOps) *Provider {
	p := &Provider{
		ops:        ops,
		read:       &ReadOps{FilesystemOps: ops},
		directory:  &DirectoryOps{FilesystemOps: ops},
		search:     &SearchOps{FilesystemOps: ops},
		write:      &WriteOps{FilesystemOps: ops},
		metadata:   &MetadataOps{FilesystemOps: ops},
		operations: &OperationsOps{FilesystemOps: ops},
		formats:    &FormatsOps{FilesystemOps: ops},
	}

	p.handlers = map[string]handlerFunc{
		"filesystem.read":            p.read.Read,
		"filesystem.list":            p.directory.List,
		"filesystem.search":          p.search.Search,
		"filesystem.find":            p.search.Find,
		"filesystem.write":           p.write.Write,
		"filesystem.stat":            p.metadata.Stat,
		"filesystem.exists":          p.metadata.Exists,
		"filesystem.mkdir":           p.operations.Mkdir,
		"filesystem.delete":          p.operations.Delete,
		"filesystem.move":            p.operations.Move,
		"filesystem.copy":            p.operations.Copy,
		"filesystem.read_structured": p.formats.ReadStructured,
	}
	return p
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	tools := []types.Tool{}
	tools = append(tools, p.read.GetTools()...)
	tools = append(tools, p.directory.GetTools()...)
	tools = append(tools, p.search.GetTools()...)
	tools = append(tools, p.write.GetTools()...)
	tools = append(tools, p.metadata.GetTools()...)
	tools = append(tools, p.operations.GetTools()...)
	tools = append(tools, p.formats.GetTools()...)

	return types.Service{
		ID:          "filesystem",
		Name:        "Filesystem Service",
		Description: "Sandboxed filesystem operations with size-bounded, resumable responses",
		Category:    types.CategoryFilesystem,
		Capabilities: []string{
			"read",
			"list",
			"search",
			"write",
			"stat",
			"move",
			"copy",
		},
		Tools: tools,
	}
}

// Execute dispatches a tool call to its handler.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	handler, ok := p.handlers[toolID]
	if !ok {
		return Failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
	return handler(ctx, params, callCtx)
}
