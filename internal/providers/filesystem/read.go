package filesystem

import (
	"context"
	"encoding/base64"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/chunk"
	"github.com/fsgate/fsgate/internal/continuation"
	"github.com/fsgate/fsgate/internal/shared/types"
)

// ReadOps handles bounded file reading.
type ReadOps struct {
	*FilesystemOps
}

// Text files page by whole lines; binary files page by raw byte windows
// encoded as base64. The window is a multiple of 3 so consecutive pages
// concatenate into one decodable base64 string.
const binaryPageSize = 8190

// GetTools returns read tool definitions
func (r *ReadOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.read",
			Name:        "Read File",
			Description: "Read file contents in size-bounded chunks",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "encoding", Type: "string", Description: "auto, utf8, or base64 (default auto)", Required: false},
				{Name: "start_line", Type: "number", Description: "First line to return, zero-based (utf8 only)", Required: false},
				{Name: "continuation_token", Type: "string", Description: "Token from a previous truncated read", Required: false},
			},
			Returns: "lines or base64 data, has_more, continuation_token",
		},
	}
}

// Read returns one chunk of a file, resuming from a continuation token
// when one is presented. The file is re-read and re-positioned from the
// cursor on every call; no handle survives between requests.
func (r *ReadOps) Read(ctx context.Context, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}

	full, err := r.Guard.Resolve(path)
	if err != nil {
		return FailureFromErr(err)
	}

	var cursor map[string]interface{}
	tokenID := getOptString(params, "continuation_token", "")
	if tokenID != "" {
		tok, err := r.Tokens.Resume(tokenID, continuation.OpReadFile, full)
		if err != nil {
			r.Metrics.RecordTokenRejected()
			return FailureFromErr(err)
		}
		r.Metrics.RecordTokenResumed()
		cursor = tok.Cursor
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return Failure("file not found: " + path)
		}
		return Failure("failed to read file: " + err.Error())
	}

	encoding := getOptString(params, "encoding", "auto")
	detected := ""
	if encoding == "auto" {
		if utf8.Valid(data) {
			encoding = "utf8"
		} else {
			encoding = "base64"
			if res, derr := chardet.NewTextDetector().DetectBest(data); derr == nil {
				detected = res.Charset
			}
		}
	}

	switch encoding {
	case "utf8":
		return r.readLines(path, full, data, params, tokenID, cursor)
	case "base64":
		return r.readBinary(path, full, data, tokenID, cursor, detected)
	default:
		return Failure("unsupported encoding: " + encoding)
	}
}

func (r *ReadOps) readLines(path, full string, data []byte, params map[string]interface{}, tokenID string, cursor map[string]interface{}) (*types.Result, error) {
	lines := splitLines(data)

	start := getOptInt(params, "start_line", 0)
	if tokenID != "" {
		start = cursorInt(cursor, "line")
	}
	if start < 0 {
		start = 0
	}
	if start > len(lines) {
		start = len(lines)
	}

	idx := start
	seq := chunk.SequenceFunc(func() (interface{}, bool, error) {
		if idx >= len(lines) {
			return nil, false, nil
		}
		line := lines[idx]
		idx++
		return line, true, nil
	})

	mon := r.NewMonitor()
	page, err := chunk.Paginate(
		r.Tokens, mon,
		continuation.OpReadFile, full,
		map[string]interface{}{"path": path, "encoding": "utf8"},
		tokenID, seq,
		func(emitted int) map[string]interface{} {
			return map[string]interface{}{"line": start + emitted}
		},
	)
	if err != nil {
		return FailureFromErr(err)
	}
	if page.HasMore && tokenID == "" {
		r.Metrics.RecordTokenIssued()
	}
	r.Metrics.RecordChunk("read_file", len(page.Items), page.HasMore)
	r.Metrics.RecordTokens(r.Tokens.Len())

	r.Log.Debug("Read file chunk",
		zap.String("path", full),
		zap.Int("start_line", start),
		zap.Int("lines", len(page.Items)),
		zap.Bool("has_more", page.HasMore))

	return Success(chunk.PageEnvelope(map[string]interface{}{
		"path":        path,
		"encoding":    "utf8",
		"lines":       page.Items,
		"start_line":  start,
		"count":       len(page.Items),
		"total_lines": len(lines),
	}, page))
}

func (r *ReadOps) readBinary(path, full string, data []byte, tokenID string, cursor map[string]interface{}, detected string) (*types.Result, error) {
	offset := cursorInt(cursor, "offset")
	if offset < 0 {
		offset = 0
	}
	if offset > len(data) {
		offset = len(data)
	}

	pos := offset
	seq := chunk.SequenceFunc(func() (interface{}, bool, error) {
		if pos >= len(data) {
			return nil, false, nil
		}
		end := pos + binaryPageSize
		if end > len(data) {
			end = len(data)
		}
		page := base64.StdEncoding.EncodeToString(data[pos:end])
		pos = end
		return page, true, nil
	})

	mon := r.NewMonitor()
	page, err := chunk.Paginate(
		r.Tokens, mon,
		continuation.OpReadFile, full,
		map[string]interface{}{"path": path, "encoding": "base64"},
		tokenID, seq,
		func(emitted int) map[string]interface{} {
			next := offset + emitted*binaryPageSize
			if next > len(data) {
				next = len(data)
			}
			return map[string]interface{}{"offset": next}
		},
	)
	if err != nil {
		return FailureFromErr(err)
	}
	if page.HasMore && tokenID == "" {
		r.Metrics.RecordTokenIssued()
	}
	r.Metrics.RecordChunk("read_file", len(page.Items), page.HasMore)
	r.Metrics.RecordTokens(r.Tokens.Len())

	parts := make([]string, len(page.Items))
	for i, it := range page.Items {
		parts[i] = it.(string)
	}

	result := map[string]interface{}{
		"path":     path,
		"encoding": "base64",
		"data":     strings.Join(parts, ""),
		"offset":   offset,
		"size":     len(data),
	}
	if detected != "" {
		result["detected_charset"] = detected
	}
	return Success(chunk.PageEnvelope(result, page))
}

// splitLines splits file content into lines without trailing line
// terminators. A trailing newline does not produce a phantom empty line.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return []string{}
	}
	s := string(data)
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
