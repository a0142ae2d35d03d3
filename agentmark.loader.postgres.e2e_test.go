//go:build integration

package agentmark

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgresLoader starts an ephemeral PostgreSQL container.
func setupPostgresLoader(t *testing.T) (*PostgresLoader, string) {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15",
		postgres.WithDatabase("agentmark_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	loader, err := NewPostgresLoader(PostgresLoaderConfig{
		ConnectionString: connStr,
		AutoMigrate:      true,
		QueryTimeout:     30 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = loader.Close() })

	return loader, connStr
}

func TestPostgresLoader_E2E(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	loader, connStr := setupPostgresLoader(t)
	ctx := context.Background()

	t.Run("schema version", func(t *testing.T) {
		version, err := loader.CurrentSchemaVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, version)

		require.NoError(t, loader.RunMigrations(ctx), "migrations are idempotent")
	})

	t.Run("prompts", func(t *testing.T) {
		require.NoError(t, loader.SavePrompt(ctx, "greeter.prompt.mdx", loaderTestPrompt))

		doc, err := loader.Load(ctx, "greeter.prompt.mdx")
		require.NoError(t, err)
		fm, err := ReadFrontMatter(doc)
		require.NoError(t, err)
		assert.Equal(t, "greeter", fm.Name)

		updated := `---
name: greeter-v2
text_config:
  model_name: gpt-4o
---
<User>Hi</User>
`
		require.NoError(t, loader.SavePrompt(ctx, "greeter.prompt.mdx", updated))
		doc, err = loader.Load(ctx, "greeter.prompt.mdx")
		require.NoError(t, err)
		fm, err = ReadFrontMatter(doc)
		require.NoError(t, err)
		assert.Equal(t, "greeter-v2", fm.Name)

		_, err = loader.Load(ctx, "missing.prompt.mdx")
		assert.ErrorIs(t, err, ErrNotFound)

		assert.Error(t, loader.SavePrompt(ctx, "broken.prompt.mdx", "<User>unclosed"))
	})

	t.Run("datasets", func(t *testing.T) {
		rows := []DatasetItem{
			{Input: map[string]any{"name": "Ann", "age": 31}, ExpectedOutput: "Hello Ann"},
			{Input: map[string]any{"name": "Ben"}},
		}
		require.NoError(t, loader.SaveDataset(ctx, "rows", rows))

		reader, err := loader.LoadDataset(ctx, "rows")
		require.NoError(t, err)
		assert.Equal(t, rows, drainDataset(t, reader))

		require.NoError(t, loader.SaveDataset(ctx, "rows", rows[1:]))
		reader, err = loader.LoadDataset(ctx, "rows")
		require.NoError(t, err)
		assert.Len(t, drainDataset(t, reader), 1)

		_, err = loader.LoadDataset(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("client over driver", func(t *testing.T) {
		opened, err := OpenLoader(LoaderDriverPostgres, connStr)
		require.NoError(t, err)
		defer opened.Close()

		require.NoError(t, loader.SavePrompt(ctx, "greeter.prompt.mdx", loaderTestPrompt))
		require.NoError(t, loader.SaveDataset(ctx, "data/rows.jsonl", []DatasetItem{
			{Input: map[string]any{"name": "Cy"}},
		}))

		client, err := NewClient(WithLoader(opened))
		require.NoError(t, err)
		p, err := client.LoadTextPrompt(ctx, "greeter.prompt.mdx")
		require.NoError(t, err)
		stream, err := p.FormatWithDataset(ctx, AdaptOptions{})
		require.NoError(t, err)

		formatted, err := stream.Collect()
		require.NoError(t, err)
		require.Len(t, formatted, 1)
		assert.Equal(t, "Hello Cy", formatted[0].Formatted.(*TextConfig).Messages[0].Content.Text)
	})

	t.Run("closed", func(t *testing.T) {
		require.NoError(t, loader.Close())
		_, err := loader.Load(ctx, "greeter.prompt.mdx")
		assert.ErrorIs(t, err, ErrLoaderClosed)
	})
}
