package agentmark

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ExtractionFunc produces the field for one role tag
type ExtractionFunc func(ctx context.Context) (ExtractedField, error)

// extractionSlot is reserved at registration time so results are read back
// in document order whatever order the tasks finish in
type extractionSlot struct {
	tag   string
	field ExtractedField
	err   error
}

// CompilationContext holds the state of a single compilation: the ordered
// extraction tasks and the goroutines running them.
type CompilationContext struct {
	ctx    context.Context
	group  errgroup.Group
	mu     sync.Mutex
	slots  []*extractionSlot
	logger *zap.Logger
}

// NewCompilationContext creates the per-call state of a compilation.
// A limit of zero or less runs every extraction task concurrently.
func NewCompilationContext(ctx context.Context, limit int, logger *zap.Logger) *CompilationContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CompilationContext{
		ctx:    ctx,
		logger: logger,
	}
	if limit > 0 {
		c.group.SetLimit(limit)
	}
	return c
}

// Context returns the caller's context
func (c *CompilationContext) Context() context.Context {
	return c.ctx
}

// Logger returns the compilation logger
func (c *CompilationContext) Logger() *zap.Logger {
	return c.logger
}

// Spawn registers an extraction task for tag and starts it. Registration
// order defines the order of Join results.
func (c *CompilationContext) Spawn(tag string, fn ExtractionFunc) {
	slot := &extractionSlot{tag: tag}

	c.mu.Lock()
	c.slots = append(c.slots, slot)
	index := len(c.slots) - 1
	c.mu.Unlock()

	c.logger.Debug(LogMsgTaskRegistered,
		zap.String(LogFieldTag, tag),
		zap.Int(LogFieldIndex, index))

	c.group.Go(func() error {
		field, err := fn(c.ctx)
		slot.field = field
		slot.err = err
		return err
	})
}

// Pending returns the number of registered tasks
func (c *CompilationContext) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// Join waits for every registered task and returns the fields in
// registration order. The first failing task in registration order decides
// the error.
func (c *CompilationContext) Join() ([]ExtractedField, error) {
	_ = c.group.Wait()

	c.mu.Lock()
	slots := c.slots
	c.mu.Unlock()

	c.logger.Debug(LogMsgTasksJoined, zap.Int(LogFieldTasks, len(slots)))

	fields := make([]ExtractedField, 0, len(slots))
	for _, slot := range slots {
		if slot.err != nil {
			return nil, slot.err
		}
		fields = append(fields, slot.field)
	}
	return fields, nil
}

// MessageContext accumulates the media parts of one User message
type MessageContext struct {
	mu    sync.Mutex
	parts []ContentPart
}

// NewMessageContext creates an empty message context
func NewMessageContext() *MessageContext {
	return &MessageContext{}
}

// Append adds a media part in rendering order
func (m *MessageContext) Append(part ContentPart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parts = append(m.parts, part)
}

// Parts returns a copy of the accumulated parts
func (m *MessageContext) Parts() []ContentPart {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ContentPart, len(m.parts))
	copy(out, m.parts)
	return out
}
