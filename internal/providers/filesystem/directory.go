package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/chunk"
	"github.com/fsgate/fsgate/internal/continuation"
	"github.com/fsgate/fsgate/internal/shared/types"
)

// DirectoryOps handles directory listing.
type DirectoryOps struct {
	*FilesystemOps
}

// GetTools returns directory tool definitions
func (d *DirectoryOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.list",
			Name:        "List Directory",
			Description: "List directory entries in size-bounded chunks",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
				{Name: "include_hidden", Type: "boolean", Description: "Include dotfiles (default false)", Required: false},
				{Name: "continuation_token", Type: "string", Description: "Token from a previous truncated listing", Required: false},
			},
			Returns: "entries, has_more, continuation_token",
		},
	}
}

// List returns one chunk of a directory listing. Entries are sorted by
// name so the index cursor lands on a stable position; entries created or
// removed between calls shift neighbours but are never silently merged
// into already-returned positions.
func (d *DirectoryOps) List(ctx context.Context, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}
	includeHidden := getOptBool(params, "include_hidden", false)

	full, err := d.Guard.Resolve(path)
	if err != nil {
		return FailureFromErr(err)
	}

	var cursor map[string]interface{}
	tokenID := getOptString(params, "continuation_token", "")
	if tokenID != "" {
		tok, err := d.Tokens.Resume(tokenID, continuation.OpListDirectory, full)
		if err != nil {
			d.Metrics.RecordTokenRejected()
			return FailureFromErr(err)
		}
		d.Metrics.RecordTokenResumed()
		cursor = tok.Cursor
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return Failure("directory not found: " + path)
		}
		return Failure("failed to list directory: " + err.Error())
	}

	infos := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !includeHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, FileInfo{
			Name:      entry.Name(),
			Path:      filepath.Join(path, entry.Name()),
			Size:      fi.Size(),
			IsDir:     entry.IsDir(),
			Mode:      fi.Mode().String(),
			Modified:  fi.ModTime(),
			Extension: extensionOf(entry.Name(), entry.IsDir()),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	start := cursorInt(cursor, "index")
	if start < 0 {
		start = 0
	}
	if start > len(infos) {
		start = len(infos)
	}

	idx := start
	seq := chunk.SequenceFunc(func() (interface{}, bool, error) {
		if idx >= len(infos) {
			return nil, false, nil
		}
		info := infos[idx]
		idx++
		return info, true, nil
	})

	mon := d.NewMonitor()
	page, err := chunk.Paginate(
		d.Tokens, mon,
		continuation.OpListDirectory, full,
		map[string]interface{}{"path": path, "include_hidden": includeHidden},
		tokenID, seq,
		func(emitted int) map[string]interface{} {
			return map[string]interface{}{"index": start + emitted}
		},
	)
	if err != nil {
		return FailureFromErr(err)
	}
	if page.HasMore && tokenID == "" {
		d.Metrics.RecordTokenIssued()
	}
	d.Metrics.RecordChunk("list_directory", len(page.Items), page.HasMore)
	d.Metrics.RecordTokens(d.Tokens.Len())

	d.Log.Debug("Listed directory chunk",
		zap.String("path", full),
		zap.Int("start", start),
		zap.Int("entries", len(page.Items)),
		zap.Bool("has_more", page.HasMore))

	return Success(chunk.PageEnvelope(map[string]interface{}{
		"path":    path,
		"entries": page.Items,
		"count":   len(page.Items),
		"total":   len(infos),
	}, page))
}

func extensionOf(name string, isDir bool) string {
	if isDir {
		return ""
	}
	return strings.TrimPrefix(filepath.Ext(name), ".")
}
