package filesystem

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/fsgate/fsgate/internal/shared/types"
)

// FormatsOps handles structured file parsing.
type FormatsOps struct {
	*FilesystemOps
}

// GetTools returns format tool definitions
func (f *FormatsOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.read_structured",
			Name:        "Read Structured File",
			Description: "Parse a JSON, YAML, TOML or CSV file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "format", Type: "string", Description: "json, yaml, toml, or csv (default: by extension)", Required: false},
			},
			Returns: "parsed document",
		},
	}
}

// ReadStructured parses a structured file into a JSON-shaped document.
// The format is taken from the extension unless overridden.
func (f *FormatsOps) ReadStructured(ctx context.Context, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}

	full, err := f.Guard.Resolve(path)
	if err != nil {
		return FailureFromErr(err)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return Failure("file not found: " + path)
		}
		return Failure("failed to read file: " + err.Error())
	}

	format := getOptString(params, "format", "")
	if format == "" {
		format = formatFromExtension(full)
	}

	var doc interface{}
	switch format {
	case "json":
		err = sonic.Unmarshal(data, &doc)
	case "yaml":
		err = yaml.Unmarshal(data, &doc)
	case "toml":
		var m map[string]interface{}
		err = toml.Unmarshal(data, &m)
		doc = m
	case "csv":
		doc, err = parseCSV(data)
	default:
		return Failure("unsupported format: " + format)
	}
	if err != nil {
		return Failure("failed to parse " + format + ": " + err.Error())
	}

	return Success(map[string]interface{}{
		"path":   path,
		"format": format,
		"data":   doc,
	})
}

func formatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	case ".csv":
		return "csv"
	default:
		return "json"
	}
}

// parseCSV returns rows keyed by the header line.
func parseCSV(data []byte) (interface{}, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []interface{}{}, nil
	}
	header := records[0]
	rows := make([]interface{}, 0, len(records)-1)
	for _, record := range records[1:] {
		row := map[string]interface{}{}
		for i, field := range record {
			if i < len(header) {
				row[header[i]] = field
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
