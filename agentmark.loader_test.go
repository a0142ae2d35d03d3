package agentmark

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loaderTestPrompt = `---
name: greeter
text_config:
  model_name: gpt-4o
test_settings:
  dataset: data/rows.jsonl
---
<User>Hello {props.name}</User>
`

const loaderTestRows = `{"input": {"name": "Ann", "age": 31, "score": 0.5}, "expected_output": "Hello Ann"}

{"input": {"name": "Ben"}, "expected_output": {"greeting": "Hello Ben"}}
{"input": {"name": "Cy"}}
`

func drainDataset(t *testing.T, reader DatasetReader) []DatasetItem {
	t.Helper()
	defer reader.Close()

	var items []DatasetItem
	for {
		item, err := reader.Next(context.Background())
		if err == io.EOF {
			return items
		}
		require.NoError(t, err)
		items = append(items, item)
	}
}

func setupPromptDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeter.prompt.mdx"), []byte(loaderTestPrompt), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "rows.jsonl"), []byte(loaderTestRows), 0o644))
	return dir
}

// ==================== Registry ====================

func TestLoaderDrivers_Registered(t *testing.T) {
	drivers := ListLoaderDrivers()
	assert.Contains(t, drivers, LoaderDriverFile)
	assert.Contains(t, drivers, LoaderDriverMemory)
	assert.Contains(t, drivers, LoaderDriverPostgres)
}

func TestOpenLoader(t *testing.T) {
	loader, err := OpenLoader(LoaderDriverMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryLoader{}, loader)
	require.NoError(t, loader.Close())

	_, err = OpenLoader("s3", "bucket")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), `unknown loader driver "s3"`)
}

func TestRegisterLoaderDriver_Panics(t *testing.T) {
	assert.PanicsWithValue(t, ErrMsgNilLoaderDriver, func() {
		RegisterLoaderDriver("nil-driver", nil)
	})
	assert.Panics(t, func() {
		RegisterLoaderDriver(LoaderDriverFile, &FileLoaderDriver{})
	})
}

func TestRegisterLoaderDriver_Custom(t *testing.T) {
	mem := NewMemoryLoader()
	if slices.Contains(ListLoaderDrivers(), "test-custom") {
		t.Skip("driver registered by an earlier run")
	}
	RegisterLoaderDriver("test-custom", LoaderDriverFunc(func(conn string) (Loader, error) {
		return mem, nil
	}))

	loader, err := OpenLoader("test-custom", "anything")
	require.NoError(t, err)
	assert.Same(t, mem, loader)
}

// ==================== Dataset lines ====================

func TestDecodeDatasetLine(t *testing.T) {
	item, err := DecodeDatasetLine([]byte(`{"input": {"n": 3, "f": 1.5, "list": [1, 2.5]}, "expected_output": "ok"}`), 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 3, "f": 1.5, "list": []any{1, 2.5}}, item.Input)
	assert.Equal(t, "ok", item.ExpectedOutput)

	item, err = DecodeDatasetLine([]byte(`{"input": {}, "expected_output": {"a": 1}}`), 2)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, item.ExpectedOutput)

	item, err = DecodeDatasetLine([]byte(`{"input": {}, "expected_output": null}`), 3)
	require.NoError(t, err)
	assert.Empty(t, item.ExpectedOutput)
}

func TestDecodeDatasetLine_Errors(t *testing.T) {
	for _, line := range []string{`not json`, `{"expected_output": "x"}`, `{"input": [1]}`} {
		_, err := DecodeDatasetLine([]byte(line), 7)
		require.Error(t, err, line)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "dataset row 7")
	}
}

func TestDatasetItem_JSON(t *testing.T) {
	data, err := json.Marshal(DatasetItem{Input: map[string]any{"a": 1}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"input": {"a": 1}}`, string(data))
}

// ==================== FileLoader ====================

func TestFileLoader_Load(t *testing.T) {
	loader, err := NewFileLoader(setupPromptDir(t))
	require.NoError(t, err)
	defer loader.Close()

	doc, err := loader.Load(context.Background(), "greeter.prompt.mdx")
	require.NoError(t, err)
	fm, err := ReadFrontMatter(doc)
	require.NoError(t, err)
	assert.Equal(t, "greeter", fm.Name)
}

func TestFileLoader_LoadJSONDocument(t *testing.T) {
	dir := t.TempDir()
	doc := MustParseDocument(loaderTestPrompt)
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeter.json"), data, 0o644))

	loader, err := NewFileLoader(dir)
	require.NoError(t, err)

	loaded, err := loader.Load(context.Background(), "greeter.json")
	require.NoError(t, err)
	if diff := cmp.Diff(doc, loaded, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("decoded document mismatch (-want +got):\n%s", diff)
	}
}

func TestFileLoader_Errors(t *testing.T) {
	dir := setupPromptDir(t)
	loader, err := NewFileLoader(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = loader.Load(ctx, "missing.prompt.mdx")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = loader.Load(ctx, "../outside.prompt.mdx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgPathEscapesBase)

	_, err = loader.Load(ctx, "")
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = loader.LoadDataset(ctx, "data/missing.jsonl")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, loader.Close())
	_, err = loader.Load(ctx, "greeter.prompt.mdx")
	assert.ErrorIs(t, err, ErrLoaderClosed)
}

func TestNewFileLoader_Errors(t *testing.T) {
	_, err := NewFileLoader(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewFileLoader(file)
	assert.Error(t, err)
}

func TestFileLoader_LoadDataset(t *testing.T) {
	loader, err := NewFileLoader(setupPromptDir(t))
	require.NoError(t, err)

	reader, err := loader.LoadDataset(context.Background(), "data/rows.jsonl")
	require.NoError(t, err)
	items := drainDataset(t, reader)

	require.Len(t, items, 3)
	assert.Equal(t, map[string]any{"name": "Ann", "age": 31, "score": 0.5}, items[0].Input)
	assert.Equal(t, "Hello Ann", items[0].ExpectedOutput)
	assert.JSONEq(t, `{"greeting": "Hello Ben"}`, items[1].ExpectedOutput)
	assert.Empty(t, items[2].ExpectedOutput)
}

func TestFileLoader_LoadDatasetBadRow(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rows.jsonl"),
		[]byte("{\"input\": {}}\n{broken\n"), 0o644))
	loader, err := NewFileLoader(dir)
	require.NoError(t, err)

	reader, err := loader.LoadDataset(context.Background(), "rows.jsonl")
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.Next(context.Background())
	require.NoError(t, err)
	_, err = reader.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset row 2")
}

func TestFileLoaderDriver(t *testing.T) {
	dir := setupPromptDir(t)
	loader, err := OpenLoader(LoaderDriverFile, dir)
	require.NoError(t, err)

	fl, ok := loader.(*FileLoader)
	require.True(t, ok)
	abs, _ := filepath.Abs(dir)
	assert.Equal(t, abs, fl.Base())
}

// ==================== MemoryLoader ====================

func TestMemoryLoader(t *testing.T) {
	loader := NewMemoryLoader()
	ctx := context.Background()

	require.NoError(t, loader.AddPromptSource("b.prompt.mdx", loaderTestPrompt))
	require.NoError(t, loader.AddPrompt("a.prompt.mdx", MustParseDocument(loaderTestPrompt)))
	assert.Equal(t, []string{"a.prompt.mdx", "b.prompt.mdx"}, loader.Paths())

	doc, err := loader.Load(ctx, "a.prompt.mdx")
	require.NoError(t, err)
	doc.Children = nil
	again, err := loader.Load(ctx, "a.prompt.mdx")
	require.NoError(t, err)
	assert.NotEmpty(t, again.Children, "Load returns a copy")

	rows := []DatasetItem{{Input: map[string]any{"name": "Ann"}}, {Input: map[string]any{"name": "Ben"}}}
	require.NoError(t, loader.AddDataset("rows", rows))
	reader, err := loader.LoadDataset(ctx, "rows")
	require.NoError(t, err)
	assert.Equal(t, rows, drainDataset(t, reader))

	_, err = loader.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = loader.LoadDataset(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryLoader_Errors(t *testing.T) {
	loader := NewMemoryLoader()

	assert.ErrorIs(t, loader.AddPrompt("", MustParseDocument(loaderTestPrompt)), ErrConfiguration)
	assert.ErrorIs(t, loader.AddPrompt("x", NewText("x")), ErrTemplate)
	assert.ErrorIs(t, loader.AddDataset("", nil), ErrConfiguration)
	assert.Error(t, loader.AddPromptSource("x", "<User>unclosed"))

	require.NoError(t, loader.Close())
	_, err := loader.Load(context.Background(), "x")
	assert.ErrorIs(t, err, ErrLoaderClosed)
	assert.ErrorIs(t, loader.AddDataset("x", nil), ErrLoaderClosed)
}

func TestDocumentFromSource(t *testing.T) {
	data, err := json.Marshal(MustParseDocument(loaderTestPrompt))
	require.NoError(t, err)

	fromJSON, err := documentFromSource("  " + string(data))
	require.NoError(t, err)
	fromSource, err := documentFromSource(loaderTestPrompt)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(fromSource, fromJSON, cmpopts.EquateEmpty()))
}
