package main

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	agentmark "github.com/agentmark-ai/agentmark-sub003"
)

// compileConfig holds parsed compile command configuration
type compileConfig struct {
	templatePath string
	dataJSON     string
	dataFilePath string
	outputPath   string
	adapter      string
	testProps    bool
	watch        bool
}

func newCompileCmd(g *globalOptions, stdin io.Reader, stdout io.Writer) *cobra.Command {
	cfg := &compileConfig{}

	cmd := &cobra.Command{
		Use:   CmdNameCompile,
		Short: "Compile a template with props and print the adapted configuration",
		Example: `  agentmark compile -t tutor.prompt.mdx -d '{"userMessage": "What is 5 + 3?"}'
  agentmark compile -t tutor.prompt.mdx --test-props --adapter openai
  cat tutor.prompt.mdx | agentmark compile -t -
  agentmark compile -t tutor.prompt.mdx --watch -o out.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), cfg, g.logger, stdin, stdout)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.templatePath, FlagTemplate, FlagTemplateShort, "", `Template file (use "-" for stdin)`)
	flags.StringVarP(&cfg.dataJSON, FlagData, FlagDataShort, "", "Props as a JSON string")
	flags.StringVarP(&cfg.dataFilePath, FlagDataFile, FlagDataFileShort, "", "Props JSON file")
	flags.StringVarP(&cfg.outputPath, FlagOutput, FlagOutputShort, FlagDefaultOutput, "Output file (default: stdout)")
	flags.StringVar(&cfg.adapter, FlagAdapter, FlagDefaultAdapter, "Adapter: default, openai")
	flags.BoolVar(&cfg.testProps, FlagTestProps, false, "Use test_settings.props from the front matter")
	flags.BoolVar(&cfg.watch, FlagWatch, false, "Recompile whenever the template changes")
	return cmd
}

func runCompile(ctx context.Context, cfg *compileConfig, logger *zap.Logger, stdin io.Reader, stdout io.Writer) error {
	if cfg.templatePath == "" {
		return newCLIError(ExitCodeUsageError, ErrMsgMissingTemplate, nil)
	}
	if cfg.watch && cfg.templatePath == InputSourceStdin {
		return newCLIError(ExitCodeUsageError, ErrMsgWatchNeedsFile, nil)
	}

	props, err := loadData(cfg.dataJSON, cfg.dataFilePath)
	if err != nil {
		return newCLIError(ExitCodeInputError, ErrMsgInvalidJSON, err)
	}
	adapter, err := newAdapter(cfg.adapter, logger)
	if err != nil {
		return err
	}
	client, err := agentmark.NewClient(
		agentmark.WithAdapter(adapter),
		agentmark.WithClientLogger(logger),
	)
	if err != nil {
		return newCLIError(ExitCodeError, ErrMsgClientCreateFailed, err)
	}

	source, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		return newCLIError(ExitCodeInputError, ErrMsgReadFileFailed, err)
	}
	doc, err := parseTemplate(cfg.templatePath, source)
	if err != nil {
		return newCLIError(ExitCodeInputError, ErrMsgParseFailed, err)
	}

	if err := compileAndWrite(ctx, client, doc, props, cfg, stdout); err != nil {
		return err
	}
	if !cfg.watch {
		return nil
	}
	return watchTemplate(ctx, client, props, cfg, logger, stdout)
}

func compileAndWrite(ctx context.Context, client *agentmark.Client, doc *agentmark.Node,
	props map[string]any, cfg *compileConfig, stdout io.Writer) error {
	p, err := client.LoadPromptFromDocument(doc)
	if err != nil {
		return compileError(err)
	}

	var out any
	if cfg.testProps {
		out, err = p.FormatWithTestProps(ctx, agentmark.AdaptOptions{})
	} else {
		out, err = p.Format(ctx, props, agentmark.AdaptOptions{})
	}
	if err != nil {
		return compileError(err)
	}

	data, err := marshalOutput(out)
	if err != nil {
		return err
	}
	if err := writeOutput(cfg.outputPath, data, stdout); err != nil {
		return newCLIError(ExitCodeError, ErrMsgWriteOutputFailed, err)
	}
	return nil
}

// compileError maps validation failures to their own exit code
func compileError(err error) error {
	if errors.Is(err, agentmark.ErrValidation) {
		return newCLIError(ExitCodeValidationError, ErrMsgCompileFailed, err)
	}
	return newCLIError(ExitCodeError, ErrMsgCompileFailed, err)
}

// watchTemplate recompiles the template on every change until ctx ends.
// Failed recompiles are logged and the watch continues.
func watchTemplate(ctx context.Context, client *agentmark.Client, props map[string]any,
	cfg *compileConfig, logger *zap.Logger, stdout io.Writer) error {
	abs, err := filepath.Abs(cfg.templatePath)
	if err != nil {
		return newCLIError(ExitCodeInputError, ErrMsgReadFileFailed, err)
	}
	loader, err := agentmark.NewFileLoader(filepath.Dir(abs))
	if err != nil {
		return newCLIError(ExitCodeError, ErrMsgLoaderFailed, err)
	}
	defer loader.Close()

	name := filepath.Base(abs)
	handler := func(ctx context.Context, event agentmark.WatchEvent) {
		if event.Path != name || event.Op != agentmark.WatchOpChanged {
			return
		}
		if event.Err != nil {
			logger.Error(ErrMsgParseFailed, zap.Error(event.Err))
			return
		}
		if err := compileAndWrite(ctx, client, event.Doc, props, cfg, stdout); err != nil {
			logger.Error(ErrMsgCompileFailed, zap.Error(err))
			return
		}
		logger.Info(LogMsgRecompiled, zap.String(agentmark.LogFieldPath, name))
	}

	watcher, err := agentmark.NewWatcher(loader, handler, logger)
	if err != nil {
		return newCLIError(ExitCodeError, ErrMsgLoaderFailed, err)
	}
	defer watcher.Close()

	logger.Info(LogMsgWatching, zap.String(agentmark.LogFieldPath, abs))
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return newCLIError(ExitCodeError, ErrMsgLoaderFailed, err)
	}
	return nil
}
