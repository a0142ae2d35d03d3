package agentmark

import (
	"context"
	"sort"
	"sync"
)

// MemoryLoader keeps prompts and datasets in memory.
// It is primarily intended for testing and development.
type MemoryLoader struct {
	mu       sync.RWMutex
	prompts  map[string]*Node
	datasets map[string][]DatasetItem
	closed   bool
}

// MemoryLoaderDriver opens MemoryLoader instances
type MemoryLoaderDriver struct{}

func init() {
	RegisterLoaderDriver(LoaderDriverMemory, &MemoryLoaderDriver{})
}

// Open creates an empty MemoryLoader. The connection string is ignored.
func (d *MemoryLoaderDriver) Open(connectionString string) (Loader, error) {
	return NewMemoryLoader(), nil
}

// NewMemoryLoader creates an empty in-memory loader.
func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{
		prompts:  make(map[string]*Node),
		datasets: make(map[string][]DatasetItem),
	}
}

// AddPrompt stores a document under path, replacing any previous one.
func (l *MemoryLoader) AddPrompt(path string, doc *Node) error {
	if path == "" {
		return NewConfigurationError(ErrMsgEmptyPromptPath)
	}
	if doc == nil || doc.Type != NodeTypeRoot {
		return NewTemplateError(ErrMsgInvalidPromptValue, nil)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return NewLoaderClosedError(LoaderDriverMemory)
	}
	l.prompts[path] = doc.Clone()
	return nil
}

// AddPromptSource parses source and stores it under path.
func (l *MemoryLoader) AddPromptSource(path, source string) error {
	doc, err := ParseDocument(source)
	if err != nil {
		return err
	}
	return l.AddPrompt(path, doc)
}

// AddDataset stores rows under path, replacing any previous dataset.
func (l *MemoryLoader) AddDataset(path string, items []DatasetItem) error {
	if path == "" {
		return NewConfigurationError(ErrMsgEmptyPromptPath)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return NewLoaderClosedError(LoaderDriverMemory)
	}
	l.datasets[path] = append([]DatasetItem(nil), items...)
	return nil
}

// Paths returns the stored prompt paths in sorted order.
func (l *MemoryLoader) Paths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	paths := make([]string, 0, len(l.prompts))
	for path := range l.prompts {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Load returns a copy of the document stored at path.
func (l *MemoryLoader) Load(ctx context.Context, path string) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, NewLoaderClosedError(LoaderDriverMemory)
	}

	doc, ok := l.prompts[path]
	if !ok {
		return nil, NewNotFoundError(ErrMsgPromptNotFound, path)
	}
	return doc.Clone(), nil
}

// LoadDataset returns a reader over a snapshot of the rows stored at path.
func (l *MemoryLoader) LoadDataset(ctx context.Context, path string) (DatasetReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, NewLoaderClosedError(LoaderDriverMemory)
	}

	items, ok := l.datasets[path]
	if !ok {
		return nil, NewNotFoundError(ErrMsgDatasetNotFound, path)
	}
	return newSliceDatasetReader(append([]DatasetItem(nil), items...)), nil
}

// Close drops all stored data
func (l *MemoryLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	l.prompts = nil
	l.datasets = nil
	return nil
}
