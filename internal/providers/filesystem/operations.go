package filesystem

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/shared/types"
)

// OperationsOps handles structural filesystem changes.
type OperationsOps struct {
	*FilesystemOps
}

// GetTools returns operation tool definitions
func (o *OperationsOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.mkdir",
			Name:        "Make Directory",
			Description: "Create a directory, including parents",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory to create", Required: true},
			},
			Returns: "created path",
		},
		{
			ID:          "filesystem.delete",
			Name:        "Delete",
			Description: "Delete a file or directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Path to delete", Required: true},
				{Name: "recursive", Type: "boolean", Description: "Delete directories recursively (default false)", Required: false},
			},
			Returns: "deleted path",
		},
		{
			ID:          "filesystem.move",
			Name:        "Move",
			Description: "Move or rename a file or directory",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination path", Required: true},
			},
			Returns: "source and destination paths",
		},
		{
			ID:          "filesystem.copy",
			Name:        "Copy",
			Description: "Copy a file",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source file", Required: true},
				{Name: "destination", Type: "string", Description: "Destination file", Required: true},
			},
			Returns: "source and destination paths, bytes copied",
		},
	}
}

// Mkdir creates a directory tree.
func (o *OperationsOps) Mkdir(ctx context.Context, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}

	full, err := o.Guard.Resolve(path)
	if err != nil {
		return FailureFromErr(err)
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		return Failure("mkdir failed: " + err.Error())
	}
	return Success(map[string]interface{}{"path": path, "created": true})
}

// Delete removes a file, or a directory when recursive is set.
func (o *OperationsOps) Delete(ctx context.Context, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}
	recursive := getOptBool(params, "recursive", false)

	full, err := o.Guard.Resolve(path)
	if err != nil {
		return FailureFromErr(err)
	}

	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return Failure("path not found: " + path)
		}
		return Failure("delete failed: " + err.Error())
	}
	if fi.IsDir() && !recursive {
		return Failure("path is a directory; pass recursive=true to delete it")
	}

	if recursive {
		err = os.RemoveAll(full)
	} else {
		err = os.Remove(full)
	}
	if err != nil {
		return Failure("delete failed: " + err.Error())
	}

	o.Log.Info("Deleted path", zap.String("path", full), zap.Bool("recursive", recursive))
	return Success(map[string]interface{}{"path": path, "deleted": true})
}

// Move renames a file or directory. Both endpoints must resolve inside
// the sandbox.
func (o *OperationsOps) Move(ctx context.Context, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	source, ok := getString(params, "source")
	if !ok {
		return Failure("source parameter required")
	}
	destination, ok := getString(params, "destination")
	if !ok {
		return Failure("destination parameter required")
	}

	src, err := o.Guard.Resolve(source)
	if err != nil {
		return FailureFromErr(err)
	}
	dst, err := o.Guard.Resolve(destination)
	if err != nil {
		return FailureFromErr(err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Failure("move failed: " + err.Error())
	}
	if err := os.Rename(src, dst); err != nil {
		return Failure("move failed: " + err.Error())
	}
	return Success(map[string]interface{}{"source": source, "destination": destination})
}

// Copy duplicates a single file.
func (o *OperationsOps) Copy(ctx context.Context, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	source, ok := getString(params, "source")
	if !ok {
		return Failure("source parameter required")
	}
	destination, ok := getString(params, "destination")
	if !ok {
		return Failure("destination parameter required")
	}

	src, err := o.Guard.Resolve(source)
	if err != nil {
		return FailureFromErr(err)
	}
	dst, err := o.Guard.Resolve(destination)
	if err != nil {
		return FailureFromErr(err)
	}

	fi, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return Failure("source not found: " + source)
		}
		return Failure("copy failed: " + err.Error())
	}
	if fi.IsDir() {
		return Failure("source is a directory; only files can be copied")
	}

	n, err := copyFile(src, dst, fi.Mode())
	if err != nil {
		return Failure("copy failed: " + err.Error())
	}
	return Success(map[string]interface{}{
		"source":      source,
		"destination": destination,
		"bytes":       n,
	})
}

func copyFile(src, dst string, mode os.FileMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
