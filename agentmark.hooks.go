package agentmark

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HookPoint identifies when a hook is called during client operations.
type HookPoint string

// Hook points for the prompt lifecycle.
const (
	// HookBeforeLoad is called before a prompt is read from the loader.
	HookBeforeLoad HookPoint = "before_load"

	// HookAfterLoad is called after a load attempt (success or failure).
	HookAfterLoad HookPoint = "after_load"

	// HookBeforeFormat is called before a prompt is compiled and adapted.
	// Hooks may replace HookData.Props.
	HookBeforeFormat HookPoint = "before_format"

	// HookAfterFormat is called after formatting (success or failure).
	HookAfterFormat HookPoint = "after_format"
)

// Hook is a function called at specific points of the prompt lifecycle.
// An error from a "before" hook aborts the operation; errors from "after"
// hooks are logged and do not change the result.
type Hook func(ctx context.Context, point HookPoint, data *HookData) error

// HookData carries the operation state to hooks.
type HookData struct {
	// Path is the loader path, or "" for prompts built from a document.
	Path string

	// Kind is the requested prompt kind. LoadPrompt leaves it empty until
	// the front matter has been read.
	Kind PromptKind

	// Template is the prompt document (nil for before_load).
	Template *Node

	// Props are the props the prompt is formatted with.
	Props map[string]any

	// Result is the adapted configuration (after_format only).
	Result any

	// Error is the failure of the operation, if any (after_* only).
	Error error

	// Metadata allows hooks to pass data to each other.
	Metadata map[string]any
}

// NewHookData creates hook data for the prompt at path.
func NewHookData(path string, kind PromptKind) *HookData {
	return &HookData{
		Path:     path,
		Kind:     kind,
		Metadata: make(map[string]any),
	}
}

// SetMetadata sets a metadata value.
func (d *HookData) SetMetadata(key string, value any) {
	if d.Metadata == nil {
		d.Metadata = make(map[string]any)
	}
	d.Metadata[key] = value
}

// GetMetadata gets a metadata value.
func (d *HookData) GetMetadata(key string) (any, bool) {
	v, ok := d.Metadata[key]
	return v, ok
}

// HookRegistry holds hooks per point. Hooks run in registration order.
type HookRegistry struct {
	mu     sync.RWMutex
	hooks  map[HookPoint][]Hook
	logger *zap.Logger
}

// NewHookRegistry creates an empty registry.
func NewHookRegistry(logger *zap.Logger) *HookRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HookRegistry{
		hooks:  make(map[HookPoint][]Hook),
		logger: logger,
	}
}

// Register adds hook to each of points.
func (r *HookRegistry) Register(hook Hook, points ...HookPoint) error {
	if hook == nil {
		return NewConfigurationError(ErrMsgNilHook)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, point := range points {
		r.hooks[point] = append(r.hooks[point], hook)
	}
	return nil
}

// Clear removes all hooks for point.
func (r *HookRegistry) Clear(point HookPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hooks, point)
}

// ClearAll removes every hook.
func (r *HookRegistry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = make(map[HookPoint][]Hook)
}

// Count returns the number of hooks registered for point.
func (r *HookRegistry) Count(point HookPoint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[point])
}

// Run calls the hooks for point. For "before" points the first error stops
// the run and is returned wrapped; for "after" points every hook runs and
// failures are only logged.
func (r *HookRegistry) Run(ctx context.Context, point HookPoint, data *HookData) error {
	r.mu.RLock()
	hooks := r.hooks[point]
	r.mu.RUnlock()

	if len(hooks) == 0 {
		return nil
	}

	before := isBeforeHook(point)
	for _, hook := range hooks {
		err := hook(ctx, point, data)
		if err == nil {
			continue
		}
		if before {
			return NewHookError(point, err)
		}
		r.logger.Warn(LogMsgHookFailed,
			zap.String(LogFieldHook, string(point)),
			zap.String(LogFieldPath, data.Path),
			zap.Error(err))
	}
	return nil
}

func isBeforeHook(point HookPoint) bool {
	return point == HookBeforeLoad || point == HookBeforeFormat
}

// LoggingHook logs every hook point it is registered for at debug level.
func LoggingHook(logger *zap.Logger) Hook {
	return func(_ context.Context, point HookPoint, data *HookData) error {
		fields := []zap.Field{
			zap.String(LogFieldHook, string(point)),
			zap.String(LogFieldPath, data.Path),
			zap.String(LogFieldKind, string(data.Kind)),
		}
		if data.Error != nil {
			fields = append(fields, zap.Error(data.Error))
		}
		logger.Debug(LogMsgHookPoint, fields...)
		return nil
	}
}

// TimingHook records the start of an operation on "before" points. The
// returned function reports the elapsed time from "after" hooks.
func TimingHook() (Hook, func(*HookData) time.Duration) {
	const metadataKey = "_timing_start"

	hook := func(_ context.Context, point HookPoint, data *HookData) error {
		if isBeforeHook(point) {
			data.SetMetadata(metadataKey, time.Now())
		}
		return nil
	}

	elapsed := func(data *HookData) time.Duration {
		start, ok := data.GetMetadata(metadataKey)
		if !ok {
			return 0
		}
		t, ok := start.(time.Time)
		if !ok {
			return 0
		}
		return time.Since(t)
	}

	return hook, elapsed
}
