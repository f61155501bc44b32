// Package batchfile decodes linkage batches from JSON or YAML files.
package batchfile

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/linkage"
	"github.com/agentstation/masterlink/pkg/table"
)

// Format is a batch encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Load reads a batch from path. "-" reads standard input. The format is
// taken from the file extension and sniffed from the content otherwise.
func Load(path string) (*linkage.Batch, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec
	}
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	format := formatFromPath(path)
	if format == "" {
		format = Sniff(data)
	}
	batch, err := Decode(data, format)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return nil, err
	}
	return batch, nil
}

// Decode parses data in the given format.
func Decode(data []byte, format Format) (*linkage.Batch, error) {
	var batch linkage.Batch
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&batch); err != nil {
			return nil, errors.WrapParse(string(format), "", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &batch); err != nil {
			return nil, errors.WrapParse(string(format), "", err)
		}
	default:
		return nil, errors.NewValidationError("format", format, "unsupported batch format")
	}
	normalizeNumbers(&batch)
	if batch.NewRows == nil {
		batch.NewRows = map[string][]table.Row{}
	}
	return &batch, nil
}

// Sniff guesses the format of data: JSON if it starts with '{', YAML otherwise.
func Sniff(data []byte) Format {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return FormatJSON
	}
	return FormatYAML
}

func formatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return ""
}

// normalizeNumbers gives decoded numbers the cell types stores produce:
// int64 where the value is integral and fits, float64 otherwise.
func normalizeNumbers(b *linkage.Batch) {
	for _, rows := range []map[string][]table.Row{b.NewRows, b.UpdatedRows} {
		for _, rs := range rows {
			for _, r := range rs {
				for k, v := range r {
					r[k] = number(v)
				}
			}
		}
	}
}

func number(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n)
		}
	case int:
		return int64(n)
	}
	return v
}
