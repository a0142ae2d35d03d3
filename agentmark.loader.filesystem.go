package agentmark

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileLoader reads prompts and datasets from a directory tree. Paths are
// resolved against the base directory and may not leave it.
//
// Prompt files ending in .json hold a pre-parsed document tree; any other
// file is template source. Datasets are JSONL files with one
// {"input": {...}, "expected_output": "..."} object per line.
type FileLoader struct {
	mu     sync.RWMutex
	base   string
	closed bool
}

// FileLoaderDriver opens FileLoader instances
type FileLoaderDriver struct{}

func init() {
	RegisterLoaderDriver(LoaderDriverFile, &FileLoaderDriver{})
}

// Open creates a FileLoader. The connection string is the base directory.
func (d *FileLoaderDriver) Open(connectionString string) (Loader, error) {
	return NewFileLoader(connectionString)
}

// NewFileLoader creates a loader rooted at base, which must be an existing
// directory.
func NewFileLoader(base string) (*FileLoader, error) {
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, NewLoaderError(ErrMsgLoaderOpen, base, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, NewLoaderError(ErrMsgLoaderOpen, base, err)
	}
	if !info.IsDir() {
		return nil, NewLoaderError(ErrMsgLoaderOpen, base, fs.ErrInvalid)
	}
	return &FileLoader{base: abs}, nil
}

// Base returns the absolute base directory
func (l *FileLoader) Base() string {
	return l.base
}

// Load reads and parses the prompt file at path.
func (l *FileLoader) Load(ctx context.Context, path string) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewNotFoundError(ErrMsgPromptNotFound, path)
		}
		return nil, NewLoaderError(ErrMsgLoaderRead, path, err)
	}

	if strings.EqualFold(filepath.Ext(full), JSONExtension) {
		return DecodeDocument(data)
	}
	return ParseDocument(string(data))
}

// LoadDataset opens the JSONL file at path. Rows are decoded lazily as
// the reader advances; blank lines are skipped.
func (l *FileLoader) LoadDataset(ctx context.Context, path string) (DatasetReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewNotFoundError(ErrMsgDatasetNotFound, path)
		}
		return nil, NewLoaderError(ErrMsgLoaderRead, path, err)
	}
	return &jsonlDatasetReader{file: f, reader: bufio.NewReader(f), path: path}, nil
}

// Close marks the loader closed
func (l *FileLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// resolve maps path onto the base directory
func (l *FileLoader) resolve(path string) (string, error) {
	l.mu.RLock()
	closed := l.closed
	l.mu.RUnlock()
	if closed {
		return "", NewLoaderClosedError(LoaderDriverFile)
	}
	if path == "" {
		return "", NewConfigurationError(ErrMsgEmptyPromptPath)
	}

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(l.base, path)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(l.base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", NewLoaderError(ErrMsgPathEscapesBase, path, ErrValidation)
	}
	return full, nil
}

// jsonlDatasetReader streams rows from an open JSONL file
type jsonlDatasetReader struct {
	file   *os.File
	reader *bufio.Reader
	path   string
	row    int
	done   bool
}

func (r *jsonlDatasetReader) Next(ctx context.Context) (DatasetItem, error) {
	for {
		if err := ctx.Err(); err != nil {
			return DatasetItem{}, err
		}
		if r.done {
			return DatasetItem{}, io.EOF
		}

		line, err := r.reader.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return DatasetItem{}, NewLoaderError(ErrMsgLoaderRead, r.path, err)
			}
			r.done = true
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		r.row++
		return DecodeDatasetLine(line, r.row)
	}
}

func (r *jsonlDatasetReader) Close() error {
	return r.file.Close()
}
