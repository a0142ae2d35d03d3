package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	agentmark "github.com/agentmark-ai/agentmark-sub003"
)

// datasetConfig holds parsed dataset command configuration
type datasetConfig struct {
	loader  string
	conn    string
	dataset string
	adapter string
}

func newDatasetCmd(g *globalOptions, stdout io.Writer) *cobra.Command {
	cfg := &datasetConfig{}

	cmd := &cobra.Command{
		Use:   CmdNameDataset + " <prompt-path>",
		Short: "Format a prompt once per dataset row and print JSON lines",
		Example: `  agentmark dataset tutor.prompt.mdx --conn ./prompts
  agentmark dataset tutor.prompt.mdx --dataset rows.jsonl
  agentmark dataset tutor --loader postgres --conn "postgres://localhost/agentmark?sslmode=disable"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDataset(cmd.Context(), cfg, args[0], g.logger, stdout)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.loader, FlagLoader, FlagDefaultLoader, "Loader driver: file, memory, postgres")
	flags.StringVar(&cfg.conn, FlagConn, FlagDefaultConn, "Loader connection string (directory for file)")
	flags.StringVar(&cfg.dataset, FlagDataset, "", "Dataset path (default: test_settings.dataset)")
	flags.StringVar(&cfg.adapter, FlagAdapter, FlagDefaultAdapter, "Adapter: default, openai")
	return cmd
}

func runDataset(ctx context.Context, cfg *datasetConfig, promptPath string, logger *zap.Logger, stdout io.Writer) error {
	if promptPath == "" {
		return newCLIError(ExitCodeUsageError, ErrMsgMissingPromptPath, nil)
	}
	adapter, err := newAdapter(cfg.adapter, logger)
	if err != nil {
		return err
	}

	loader, err := agentmark.OpenLoader(cfg.loader, cfg.conn)
	if err != nil {
		return newCLIError(ExitCodeError, ErrMsgLoaderFailed, err)
	}
	defer loader.Close()

	hooks := agentmark.NewHookRegistry(logger)
	if err := hooks.Register(agentmark.LoggingHook(logger),
		agentmark.HookAfterLoad, agentmark.HookAfterFormat); err != nil {
		return newCLIError(ExitCodeError, ErrMsgClientCreateFailed, err)
	}

	client, err := agentmark.NewClient(
		agentmark.WithLoader(loader),
		agentmark.WithAdapter(adapter),
		agentmark.WithHooks(hooks),
		agentmark.WithClientLogger(logger),
	)
	if err != nil {
		return newCLIError(ExitCodeError, ErrMsgClientCreateFailed, err)
	}

	p, err := client.LoadPrompt(ctx, promptPath)
	if err != nil {
		return compileError(err)
	}
	stream, err := p.FormatWithDataset(ctx, agentmark.AdaptOptions{DatasetPath: cfg.dataset})
	if err != nil {
		return newCLIError(ExitCodeError, ErrMsgDatasetFailed, err)
	}
	defer stream.Close()

	enc := json.NewEncoder(stdout)
	for row := range stream.All() {
		if err := enc.Encode(row); err != nil {
			return newCLIError(ExitCodeError, ErrMsgWriteOutputFailed, err)
		}
	}
	if err := stream.Err(); err != nil {
		return newCLIError(ExitCodeError, ErrMsgDatasetFailed, err)
	}
	return nil
}
