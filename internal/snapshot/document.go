// Package snapshot persists the task graph as a single document on disk.
//
// A snapshot is the flat task list returned by graphstore.Store.Snapshot,
// wrapped with a format version, a revision id and the save time. It is
// encoded as JSON or YAML, chosen by file extension unless configured
// explicitly. Writes are atomic (temporary file plus rename) and guarded by
// an flock so that two taskgraph processes sharing a workspace never
// interleave. A Watcher reports when another process replaces the file.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/taskgraph/internal/task"
)

// FormatVersion is the document version written by this package.
const FormatVersion = 1

// Format selects the document encoding.
type Format string

// Supported formats. FormatAuto picks by file extension.
const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a configured format name. The empty string means
// FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown snapshot format %q (want auto, json or yaml)", s)
	}
}

// Resolve returns the concrete format for path: f itself unless it is
// FormatAuto, in which case .yaml and .yml select YAML and anything else
// JSON.
func (f Format) Resolve(path string) Format {
	if f != FormatAuto && f != "" {
		return f
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is the on-disk representation of a task graph.
type Document struct {
	Version  int         `json:"version" yaml:"version"`
	Revision string      `json:"revision" yaml:"revision"`
	SavedAt  time.Time   `json:"saved_at" yaml:"saved_at"`
	Tasks    []task.Task `json:"tasks" yaml:"tasks"`
}

// Encode serializes doc in format f, which must not be FormatAuto.
func Encode(doc *Document, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal snapshot: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("marshal snapshot: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("marshal snapshot: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("cannot encode snapshot as %q", f)
	}
}

// Decode parses data in format f and checks the document version. An empty
// input decodes to an empty document.
func Decode(data []byte, f Format) (*Document, error) {
	doc := &Document{}
	if len(bytes.TrimSpace(data)) == 0 {
		doc.Version = FormatVersion
		return doc, nil
	}

	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, doc)
	default:
		return nil, fmt.Errorf("cannot decode snapshot as %q", f)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	switch {
	case doc.Version == 0:
		doc.Version = FormatVersion
	case doc.Version > FormatVersion:
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d", doc.Version, FormatVersion)
	}
	if doc.Tasks == nil {
		doc.Tasks = []task.Task{}
	}
	return doc, nil
}
