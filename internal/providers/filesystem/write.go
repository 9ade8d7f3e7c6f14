package filesystem

import (
	"context"
	"encoding/base64"
	"errors"

	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/atomicwrite"
	"github.com/fsgate/fsgate/internal/shared/types"
)

// WriteOps handles durable file writes.
type WriteOps struct {
	*FilesystemOps
}

// GetTools returns write tool definitions
func (w *WriteOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.write",
			Name:        "Write File",
			Description: "Write a file atomically with backup, verification and retry",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "content", Type: "string", Description: "Content to write", Required: true},
				{Name: "encoding", Type: "string", Description: "utf8 or base64 (default utf8)", Required: false},
				{Name: "mode", Type: "string", Description: "overwrite or append (default overwrite)", Required: false},
				{Name: "chunk_size", Type: "number", Description: "Streamed write chunk size in bytes (default 64KiB)", Required: false},
				{Name: "backup", Type: "boolean", Description: "Back up an existing file first (default true)", Required: false},
				{Name: "verify_write", Type: "boolean", Description: "Verify the committed size (default true)", Required: false},
				{Name: "retry_attempts", Type: "number", Description: "Attempts before giving up (default 3)", Required: false},
			},
			Returns: "written, final_size, chunks_written, retries_used, elapsed_ms, backup_path",
		},
	}
}

// Write commits content through the atomic pipeline. Either the full
// content lands at the target path or the pre-existing state is restored;
// readers never observe a half-written file.
func (w *WriteOps) Write(ctx context.Context, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}
	raw, ok := params["content"].(string)
	if !ok {
		return Failure("content parameter required")
	}

	full, err := w.Guard.Resolve(path)
	if err != nil {
		return FailureFromErr(err)
	}

	content := []byte(raw)
	if getOptString(params, "encoding", "utf8") == "base64" {
		content, err = base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return Failure("invalid base64 content: " + err.Error())
		}
	}

	mode := atomicwrite.ModeOverwrite
	switch getOptString(params, "mode", "overwrite") {
	case "overwrite":
	case "append":
		mode = atomicwrite.ModeAppend
	default:
		return Failure("mode must be overwrite or append")
	}

	retryAttempts := getOptInt(params, "retry_attempts", w.WriteRetryAttempts)
	if retryAttempts <= 0 {
		retryAttempts = atomicwrite.DefaultRetryAttempts
	}

	report, err := w.Writer.Write(ctx, atomicwrite.Request{
		Path:          full,
		Content:       content,
		Mode:          mode,
		ChunkSize:     getOptInt(params, "chunk_size", w.WriteChunkSize),
		Backup:        getOptBool(params, "backup", true),
		Verify:        getOptBool(params, "verify_write", true),
		RetryAttempts: retryAttempts,
	})
	if err != nil {
		w.Metrics.RecordWriteFailure()
		var verr *atomicwrite.VerificationError
		if errors.As(err, &verr) {
			return Failure("write verification failed: " + verr.Error())
		}
		var werr *atomicwrite.WriteError
		if errors.As(err, &werr) {
			w.Log.Warn("Write failed after retries",
				zap.String("path", full),
				zap.Int("attempts", werr.Attempts),
				zap.Error(werr.Err))
		}
		return Failure("write failed: " + err.Error())
	}

	w.Metrics.RecordWrite(int64(len(content)), report.RetriesUsed)

	data := map[string]interface{}{
		"path":           path,
		"written":        len(content),
		"final_size":     report.FinalSize,
		"chunks_written": report.ChunksWritten,
		"retries_used":   report.RetriesUsed,
		"elapsed_ms":     report.Elapsed.Milliseconds(),
	}
	if report.BackupPath != "" {
		data["backup_path"] = report.BackupPath
	}
	return Success(data)
}
