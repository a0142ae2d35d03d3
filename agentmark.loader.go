package agentmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Loader reads prompt documents and datasets from a backing store.
// Implementations must be safe for concurrent use.
type Loader interface {
	// Load returns the document stored at path.
	// Returns an error matching ErrNotFound if nothing is stored there.
	Load(ctx context.Context, path string) (*Node, error)

	// LoadDataset opens the dataset stored at path for a single forward read.
	LoadDataset(ctx context.Context, path string) (DatasetReader, error)

	// Close releases any resources held by the loader.
	Close() error
}

// DatasetItem is one row of a dataset
type DatasetItem struct {
	Input          map[string]any `json:"input"`
	ExpectedOutput string         `json:"expected_output,omitempty"`
}

// DatasetReader yields dataset rows in order. Next returns io.EOF after
// the last row.
type DatasetReader interface {
	Next(ctx context.Context) (DatasetItem, error)
	Close() error
}

// LoaderDriver is a factory for loaders. Drivers register themselves
// during init().
type LoaderDriver interface {
	// Open creates a loader from a driver-specific connection string.
	Open(connectionString string) (Loader, error)
}

// LoaderDriverFunc adapts a function to the LoaderDriver interface
type LoaderDriverFunc func(connectionString string) (Loader, error)

// Open calls f
func (f LoaderDriverFunc) Open(connectionString string) (Loader, error) {
	return f(connectionString)
}

// Loader driver names
const (
	LoaderDriverFile     = "file"
	LoaderDriverMemory   = "memory"
	LoaderDriverPostgres = "postgres"
)

// Loader driver registry error messages
const (
	ErrMsgNilLoaderDriver         = "loader driver is nil"
	ErrMsgLoaderDriverRegistered  = "loader driver already registered"
	ErrMsgLoaderDriverUnavailable = "loader driver not found"
)

// Loader driver registry
var (
	loaderDriversMu sync.RWMutex
	loaderDrivers   = make(map[string]LoaderDriver)
)

// RegisterLoaderDriver registers a loader driver by name.
// Panics if the driver is nil or the name is already registered.
func RegisterLoaderDriver(name string, driver LoaderDriver) {
	loaderDriversMu.Lock()
	defer loaderDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilLoaderDriver)
	}
	if _, exists := loaderDrivers[name]; exists {
		panic(ErrMsgLoaderDriverRegistered + ": " + name)
	}
	loaderDrivers[name] = driver
}

// OpenLoader opens a loader using the named driver.
//
// Example:
//
//	loader, err := agentmark.OpenLoader("file", "./prompts")
//	loader, err := agentmark.OpenLoader("postgres", "postgres://localhost/agentmark?sslmode=disable")
func OpenLoader(driverName, connectionString string) (Loader, error) {
	loaderDriversMu.RLock()
	driver, ok := loaderDrivers[driverName]
	loaderDriversMu.RUnlock()

	if !ok {
		return nil, NewConfigurationError(fmt.Sprintf(ErrMsgLoaderDriverFmt, driverName))
	}
	return driver.Open(connectionString)
}

// ListLoaderDrivers returns the registered driver names in sorted order.
func ListLoaderDrivers() []string {
	loaderDriversMu.RLock()
	defer loaderDriversMu.RUnlock()

	names := make([]string, 0, len(loaderDrivers))
	for name := range loaderDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type datasetLine struct {
	Input          map[string]any  `json:"input"`
	ExpectedOutput json.RawMessage `json:"expected_output"`
}

// DecodeDatasetLine decodes one JSONL dataset row. A non-string
// expected_output is kept as its JSON text.
func DecodeDatasetLine(line []byte, row int) (DatasetItem, error) {
	var raw datasetLine
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || raw.Input == nil {
		return DatasetItem{}, NewConfigurationError(fmt.Sprintf(ErrMsgDatasetRowFmt, row))
	}

	item := DatasetItem{Input: normalizeNumbers(raw.Input).(map[string]any)}
	if len(raw.ExpectedOutput) > 0 && string(raw.ExpectedOutput) != "null" {
		var s string
		if err := json.Unmarshal(raw.ExpectedOutput, &s); err == nil {
			item.ExpectedOutput = s
		} else {
			item.ExpectedOutput = string(raw.ExpectedOutput)
		}
	}
	return item, nil
}

// normalizeNumbers turns json.Number values into int when integral and
// float64 otherwise
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	}
	return v
}

// sliceDatasetReader serves rows from memory
type sliceDatasetReader struct {
	items []DatasetItem
	pos   int
}

func newSliceDatasetReader(items []DatasetItem) *sliceDatasetReader {
	return &sliceDatasetReader{items: items}
}

func (r *sliceDatasetReader) Next(ctx context.Context) (DatasetItem, error) {
	if err := ctx.Err(); err != nil {
		return DatasetItem{}, err
	}
	if r.pos >= len(r.items) {
		return DatasetItem{}, io.EOF
	}
	item := r.items[r.pos]
	r.pos++
	return item, nil
}

func (r *sliceDatasetReader) Close() error {
	return nil
}

// documentFromSource decodes a stored prompt: JSON documents start with
// '{', anything else is template source
func documentFromSource(source string) (*Node, error) {
	if strings.HasPrefix(strings.TrimSpace(source), "{") {
		return DecodeDocument([]byte(source))
	}
	return ParseDocument(source)
}
