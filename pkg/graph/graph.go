package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/selgraph/pkg/dag"
	"github.com/matzehuels/selgraph/pkg/errors"
)

// Format identifies a graph document encoding.
type Format string

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from a file extension.
// Unknown extensions default to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a DAG to indented JSON bytes.
func MarshalGraph(g *dag.DAG) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf, FormatJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph document.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}
	return g, nil
}

// WriteGraph writes a DAG as JSON to an io.Writer.
func WriteGraph(g *dag.DAG, w io.Writer) error {
	return writeGraphTo(g, w, FormatJSON)
}

// WriteGraphFile writes a DAG to a file, encoded according to its extension.
func WriteGraphFile(g *dag.DAG, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f, FormatFromPath(path))
}

// ReadGraph decodes a graph document from r into a DAG.
func ReadGraph(r io.Reader, format Format) (*dag.DAG, error) {
	return readGraphFrom(r, format)
}

// ReadGraphFile reads a graph file and returns the decoded DAG.
// The format is chosen from the extension (.json, .yaml, .yml).
func ReadGraphFile(path string) (*dag.DAG, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f, FormatFromPath(path))
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g *dag.DAG, w io.Writer, format Format) error {
	out := FromDAG(g)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	}
}

func readGraphFrom(r io.Reader, format Format) (*dag.DAG, error) {
	var data Graph
	var err error
	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&data)
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&data)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported graph format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s graph", format)
	}
	return ToDAG(data)
}
