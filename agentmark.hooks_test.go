package agentmark

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var errHookRejected = errors.New("rejected")

func TestHookRegistry_Register(t *testing.T) {
	r := NewHookRegistry(nil)

	err := r.Register(nil, HookBeforeLoad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), ErrMsgNilHook)

	noop := func(context.Context, HookPoint, *HookData) error { return nil }
	require.NoError(t, r.Register(noop, HookBeforeLoad, HookAfterLoad))
	require.NoError(t, r.Register(noop, HookBeforeLoad))
	assert.Equal(t, 2, r.Count(HookBeforeLoad))
	assert.Equal(t, 1, r.Count(HookAfterLoad))
	assert.Equal(t, 0, r.Count(HookBeforeFormat))

	r.Clear(HookBeforeLoad)
	assert.Equal(t, 0, r.Count(HookBeforeLoad))
	assert.Equal(t, 1, r.Count(HookAfterLoad))

	r.ClearAll()
	assert.Equal(t, 0, r.Count(HookAfterLoad))
}

func TestHookRegistry_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("before hook aborts on first error", func(t *testing.T) {
		r := NewHookRegistry(nil)
		var calls []string
		require.NoError(t, r.Register(func(context.Context, HookPoint, *HookData) error {
			calls = append(calls, "first")
			return errHookRejected
		}, HookBeforeFormat))
		require.NoError(t, r.Register(func(context.Context, HookPoint, *HookData) error {
			calls = append(calls, "second")
			return nil
		}, HookBeforeFormat))

		err := r.Run(ctx, HookBeforeFormat, NewHookData("a.prompt.mdx", KindText))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrHook)
		assert.ErrorIs(t, err, errHookRejected)
		assert.Equal(t, string(HookBeforeFormat), metadata(t, err, MetaKeyHook))
		assert.Equal(t, []string{"first"}, calls)
	})

	t.Run("after hook errors are logged", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		r := NewHookRegistry(zap.New(core))
		calls := 0
		for range 2 {
			require.NoError(t, r.Register(func(context.Context, HookPoint, *HookData) error {
				calls++
				return errHookRejected
			}, HookAfterFormat))
		}

		require.NoError(t, r.Run(ctx, HookAfterFormat, NewHookData("a.prompt.mdx", KindText)))
		assert.Equal(t, 2, calls)

		failed := logs.FilterMessage(LogMsgHookFailed).All()
		require.Len(t, failed, 2)
		assert.Equal(t, string(HookAfterFormat), failed[0].ContextMap()[LogFieldHook])
		assert.Equal(t, "a.prompt.mdx", failed[0].ContextMap()[LogFieldPath])
	})
}

func TestHookData_Metadata(t *testing.T) {
	data := &HookData{}
	_, ok := data.GetMetadata("missing")
	assert.False(t, ok)

	data.SetMetadata("k", 1)
	v, ok := data.GetMetadata("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestClient_LoadHooks(t *testing.T) {
	ctx := context.Background()
	hooks := NewHookRegistry(nil)
	var seen []*HookData
	require.NoError(t, hooks.Register(func(_ context.Context, point HookPoint, data *HookData) error {
		if point == HookAfterLoad {
			seen = append(seen, data)
		}
		return nil
	}, HookBeforeLoad, HookAfterLoad))
	client, _ := newTestClient(t, WithHooks(hooks))
	assert.Same(t, hooks, client.Hooks())

	_, err := client.LoadTextPrompt(ctx, "greeter.prompt.mdx")
	require.NoError(t, err)
	_, err = client.LoadPrompt(ctx, "painter.prompt.mdx")
	require.NoError(t, err)
	_, err = client.LoadTextPrompt(ctx, "missing.prompt.mdx")
	require.Error(t, err)

	require.Len(t, seen, 3)
	assert.Equal(t, "greeter.prompt.mdx", seen[0].Path)
	assert.Equal(t, KindText, seen[0].Kind)
	assert.NotNil(t, seen[0].Template)
	assert.NoError(t, seen[0].Error)

	assert.Empty(t, seen[1].Kind, "LoadPrompt does not know the kind before loading")

	assert.Nil(t, seen[2].Template)
	assert.ErrorIs(t, seen[2].Error, ErrNotFound)
}

func TestClient_BeforeLoadHookAborts(t *testing.T) {
	hooks := NewHookRegistry(nil)
	require.NoError(t, hooks.Register(func(context.Context, HookPoint, *HookData) error {
		return errHookRejected
	}, HookBeforeLoad))
	client, _ := newTestClient(t, WithHooks(hooks))

	_, err := client.LoadTextPrompt(context.Background(), "greeter.prompt.mdx")
	assert.ErrorIs(t, err, ErrHook)
	_, err = client.LoadPrompt(context.Background(), "greeter.prompt.mdx")
	assert.ErrorIs(t, err, ErrHook)
}

func TestPrompt_FormatHooks(t *testing.T) {
	ctx := context.Background()

	t.Run("before format replaces props", func(t *testing.T) {
		hooks := NewHookRegistry(nil)
		require.NoError(t, hooks.Register(func(_ context.Context, _ HookPoint, data *HookData) error {
			data.Props = map[string]any{"name": "Hooked"}
			return nil
		}, HookBeforeFormat))
		client, _ := newTestClient(t, WithHooks(hooks))

		p, err := client.LoadTextPrompt(ctx, "greeter.prompt.mdx")
		require.NoError(t, err)
		out, err := p.Format(ctx, map[string]any{"name": "Ann"}, AdaptOptions{})
		require.NoError(t, err)
		assert.Equal(t, "Hello Hooked", out.(*TextConfig).Messages[0].Content.Text)
	})

	t.Run("after format sees result and error", func(t *testing.T) {
		hooks := NewHookRegistry(nil)
		var after []*HookData
		require.NoError(t, hooks.Register(func(_ context.Context, _ HookPoint, data *HookData) error {
			after = append(after, data)
			return nil
		}, HookAfterFormat))
		client, _ := newTestClient(t,
			WithHooks(hooks),
			WithAdapter(failingAdapter{failOn: "Hello Ben"}))

		p, err := client.LoadTextPrompt(ctx, "greeter.prompt.mdx")
		require.NoError(t, err)
		_, err = p.Format(ctx, map[string]any{"name": "Ann"}, AdaptOptions{})
		require.NoError(t, err)
		_, err = p.Format(ctx, map[string]any{"name": "Ben"}, AdaptOptions{})
		require.ErrorIs(t, err, errAdaptFailed)

		require.Len(t, after, 2)
		assert.Equal(t, "greeter.prompt.mdx", after[0].Path)
		assert.NotNil(t, after[0].Result)
		assert.NoError(t, after[0].Error)
		assert.Nil(t, after[1].Result)
		assert.ErrorIs(t, after[1].Error, errAdaptFailed)
	})

	t.Run("before format aborts every kind", func(t *testing.T) {
		hooks := NewHookRegistry(nil)
		require.NoError(t, hooks.Register(func(context.Context, HookPoint, *HookData) error {
			return errHookRejected
		}, HookBeforeFormat))
		client, _ := newTestClient(t, WithHooks(hooks))

		for _, path := range []string{"greeter.prompt.mdx", "painter.prompt.mdx", "narrator.prompt.mdx", "extractor.prompt.mdx"} {
			p, err := client.LoadPrompt(ctx, path)
			require.NoError(t, err)
			_, err = p.FormatWithTestProps(ctx, AdaptOptions{})
			assert.ErrorIs(t, err, ErrHook, path)
		}
	})

	t.Run("dataset rows run format hooks", func(t *testing.T) {
		hooks := NewHookRegistry(nil)
		formats := 0
		require.NoError(t, hooks.Register(func(context.Context, HookPoint, *HookData) error {
			formats++
			return nil
		}, HookAfterFormat))
		client, _ := newTestClient(t, WithHooks(hooks))

		p, err := client.LoadTextPrompt(ctx, "greeter.prompt.mdx")
		require.NoError(t, err)
		stream, err := p.FormatWithDataset(ctx, AdaptOptions{})
		require.NoError(t, err)
		defer stream.Close()
		rows, err := stream.Collect()
		require.NoError(t, err)
		assert.Len(t, rows, 2)
		assert.Equal(t, 2, formats)
	})
}

func TestLoggingHook(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	hooks := NewHookRegistry(nil)
	require.NoError(t, hooks.Register(LoggingHook(zap.New(core)), HookAfterLoad))
	client, _ := newTestClient(t, WithHooks(hooks))

	_, err := client.LoadTextPrompt(context.Background(), "greeter.prompt.mdx")
	require.NoError(t, err)

	entries := logs.FilterMessage(LogMsgHookPoint).All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, string(HookAfterLoad), fields[LogFieldHook])
	assert.Equal(t, string(KindText), fields[LogFieldKind])
}

func TestTimingHook(t *testing.T) {
	hook, elapsed := TimingHook()
	data := NewHookData("a.prompt.mdx", KindText)
	assert.Zero(t, elapsed(data))

	require.NoError(t, hook(context.Background(), HookBeforeFormat, data))
	time.Sleep(time.Millisecond)
	require.NoError(t, hook(context.Background(), HookAfterFormat, data))
	assert.GreaterOrEqual(t, elapsed(data), time.Millisecond)
}
