package filesystem

import (
	"errors"
	"time"

	"github.com/fsgate/fsgate/internal/atomicwrite"
	"github.com/fsgate/fsgate/internal/budget"
	"github.com/fsgate/fsgate/internal/continuation"
	"github.com/fsgate/fsgate/internal/infrastructure/logging"
	"github.com/fsgate/fsgate/internal/infrastructure/monitoring"
	"github.com/fsgate/fsgate/internal/pathguard"
	"github.com/fsgate/fsgate/internal/shared/types"
)

// FileInfo represents file metadata
type FileInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	IsDir     bool      `json:"is_dir"`
	Mode      string    `json:"mode"`
	Modified  time.Time `json:"modified"`
	Extension string    `json:"extension,omitempty"`
}

// FilesystemOps provides shared dependencies for all operation groups.
type FilesystemOps struct {
	Guard   pathguard.Resolver
	Tokens  *continuation.Store
	Writer  *atomicwrite.Pipeline
	Log     *logging.Logger
	Metrics *monitoring.Metrics

	// Response budget; a fresh monitor is created per chunked call.
	BudgetBytes    int
	BudgetFraction float64

	// Write defaults applied when the call omits the parameter. Zero
	// values fall through to the pipeline's own defaults.
	WriteChunkSize     int
	WriteRetryAttempts int
}

// NewMonitor creates a response-size monitor for one call.
func (ops *FilesystemOps) NewMonitor() *budget.Monitor {
	return budget.New(ops.BudgetBytes, ops.BudgetFraction)
}

// Success helper
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure helper
func Failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}

// FailureFromErr maps engine errors onto tool results. Usage errors and
// access denials carry their own messages; everything else is passed
// through verbatim.
func FailureFromErr(err error) (*types.Result, error) {
	var usage *continuation.UsageError
	if errors.As(err, &usage) {
		return Failure(usage.Error())
	}
	var denied *pathguard.AccessDeniedError
	if errors.As(err, &denied) {
		return Failure(denied.Error())
	}
	if errors.Is(err, continuation.ErrNotFound) {
		return Failure("continuation token unknown or expired")
	}
	return Failure(err.Error())
}

// getString extracts a required string parameter.
func getString(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key].(string)
	return v, ok && v != ""
}

// getOptString extracts an optional string parameter with a default.
func getOptString(params map[string]interface{}, key, def string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return def
}

// getOptInt extracts an optional integer parameter. JSON numbers arrive as
// float64; in-process callers may pass int.
func getOptInt(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return def
	}
}

// getOptBool extracts an optional boolean parameter with a default.
func getOptBool(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

// cursorInt reads an integer cursor field, tolerating JSON float64.
func cursorInt(cursor map[string]interface{}, key string) int {
	return getOptInt(cursor, key, 0)
}

// cursorString reads a string cursor field.
func cursorString(cursor map[string]interface{}, key string) string {
	if v, ok := cursor[key].(string); ok {
		return v
	}
	return ""
}
