package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fsgate/fsgate/internal/shared/types"
)

// MetadataOps handles file metadata queries.
type MetadataOps struct {
	*FilesystemOps
}

// GetTools returns metadata tool definitions
func (m *MetadataOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.stat",
			Name:        "Stat",
			Description: "Get file or directory metadata",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Path to inspect", Required: true},
			},
			Returns: "name, size, mode, timestamps, mime type",
		},
		{
			ID:          "filesystem.exists",
			Name:        "Exists",
			Description: "Check whether a path exists",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Path to check", Required: true},
			},
			Returns: "exists, is_dir",
		},
	}
}

// Stat returns metadata for one path.
func (m *MetadataOps) Stat(ctx context.Context, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}

	full, err := m.Guard.Resolve(path)
	if err != nil {
		return FailureFromErr(err)
	}

	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return Failure("path not found: " + path)
		}
		return Failure("stat failed: " + err.Error())
	}

	data := map[string]interface{}{
		"name":     fi.Name(),
		"path":     path,
		"size":     fi.Size(),
		"is_dir":   fi.IsDir(),
		"mode":     fi.Mode().String(),
		"modified": fi.ModTime(),
	}
	if !fi.IsDir() {
		data["extension"] = strings.TrimPrefix(filepath.Ext(fi.Name()), ".")
		// Detection reads a bounded prefix of the file; failure leaves
		// the field out rather than failing the stat.
		if mt, merr := mimetype.DetectFile(full); merr == nil {
			data["mime_type"] = mt.String()
		}
	}
	return Success(data)
}

// Exists reports whether a path exists inside the sandbox.
func (m *MetadataOps) Exists(ctx context.Context, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}

	full, err := m.Guard.Resolve(path)
	if err != nil {
		return FailureFromErr(err)
	}

	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return Success(map[string]interface{}{"path": path, "exists": false})
		}
		return Failure("stat failed: " + err.Error())
	}
	return Success(map[string]interface{}{
		"path":   path,
		"exists": true,
		"is_dir": fi.IsDir(),
	})
}
