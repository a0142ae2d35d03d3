package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	agentmark "github.com/agentmark-ai/agentmark-sub003"
)

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	templatePath string
	format       string
}

// validationOutput represents JSON output for validate
type validationOutput struct {
	Valid bool   `json:"valid"`
	Kind  string `json:"kind,omitempty"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error,omitempty"`
}

func newValidateCmd(g *globalOptions, stdin io.Reader, stdout io.Writer) *cobra.Command {
	cfg := &validateConfig{}

	cmd := &cobra.Command{
		Use:   CmdNameValidate,
		Short: "Validate a template's front matter and body without adapting it",
		Example: `  agentmark validate -t tutor.prompt.mdx
  agentmark validate -t tutor.prompt.mdx -F json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cfg, g, stdin, stdout)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.templatePath, FlagTemplate, FlagTemplateShort, "", `Template file (use "-" for stdin)`)
	flags.StringVarP(&cfg.format, FlagFormat, FlagFormatShort, FlagDefaultFormat, "Output format: text, json")
	return cmd
}

// runValidate parses the template, validates the front matter and compiles
// the body with test props so tag errors surface too.
func runValidate(ctx context.Context, cfg *validateConfig, g *globalOptions, stdin io.Reader, stdout io.Writer) error {
	if cfg.templatePath == "" {
		return newCLIError(ExitCodeUsageError, ErrMsgMissingTemplate, nil)
	}
	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return newCLIError(ExitCodeUsageError, ErrMsgInvalidFormat, nil)
	}

	source, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		return newCLIError(ExitCodeInputError, ErrMsgReadFileFailed, err)
	}

	out := validationOutput{Valid: true}
	fm, err := validateSource(ctx, cfg.templatePath, source, g)
	if err != nil {
		out = validationOutput{Error: err.Error()}
	} else {
		out.Kind = string(fm.Kind)
		out.Name = fm.Name
	}

	if cfg.format == OutputFormatJSON {
		data, mErr := marshalOutput(out)
		if mErr != nil {
			return mErr
		}
		if _, wErr := stdout.Write(data); wErr != nil {
			return newCLIError(ExitCodeError, ErrMsgWriteOutputFailed, wErr)
		}
	} else if err == nil {
		fmt.Fprintf(stdout, ValidationTextSuccessFmt+FmtNewline, out.Kind, out.Name)
	} else {
		fmt.Fprintf(stdout, ValidationTextFailureFmt+FmtNewline, err)
	}

	if err != nil {
		return newCLIError(ExitCodeValidationError, ErrMsgValidationFailed, nil)
	}
	return nil
}

func validateSource(ctx context.Context, path string, source []byte, g *globalOptions) (*agentmark.FrontMatter, error) {
	doc, err := parseTemplate(path, source)
	if err != nil {
		return nil, err
	}
	fm, err := agentmark.ReadFrontMatter(doc)
	if err != nil {
		return nil, err
	}

	props := map[string]any{}
	if fm.TestSettings != nil && fm.TestSettings.Props != nil {
		props = fm.TestSettings.Props
	}
	engine, err := agentmark.New(agentmark.WithLogger(g.logger))
	if err != nil {
		return nil, err
	}
	if _, err := engine.Compile(ctx, doc, props); err != nil {
		return nil, err
	}
	return fm, nil
}
