// Package manifest encodes compose projects and moves them between the
// process and the filesystem. It is the imperative shell around
// internal/core/compose.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hagever/homelab-composer/internal/core/compose"
	"github.com/moby/sys/atomicwriter"
	"gopkg.in/yaml.v3"
)

// Stdio is the path that selects standard input or output.
const Stdio = "-"

// FileMode is the permission of written manifest files.
const FileMode os.FileMode = 0o644

// Encode renders project as YAML with two-space indentation and a trailing
// newline.
func Encode(project *compose.Project) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(project); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Write stores data at path. An empty path or "-" writes to stdout instead.
// Files are replaced atomically so a failed run never leaves a truncated
// manifest behind.
func Write(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == Stdio {
		if _, err := stdout.Write(data); err != nil {
			return &Error{Op: "write", Path: Stdio, Err: err}
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &Error{Op: "mkdir", Path: dir, Err: err}
		}
	}
	if err := atomicwriter.WriteFile(path, data, FileMode); err != nil {
		return &Error{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Read returns the content at path. "-" reads all of stdin.
func Read(path string, stdin io.Reader) (string, error) {
	if path == Stdio {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", &Error{Op: "read", Path: Stdio, Err: err}
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &Error{Op: "read", Path: path, Err: err}
	}
	return string(data), nil
}

// Error records a failed manifest I/O operation.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
