package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// cliError carries an exit code alongside the message printed to stderr
type cliError struct {
	code    int
	message string
	cause   error
}

func (e *cliError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return e.message + ": " + e.cause.Error()
}

func (e *cliError) Unwrap() error {
	return e.cause
}

func newCLIError(code int, message string, cause error) error {
	return &cliError{code: code, message: message, cause: cause}
}

// reportError prints err and maps it to an exit code. Errors raised by
// cobra itself (unknown flags or commands) are usage errors.
func reportError(stderr io.Writer, err error) int {
	var ce *cliError
	if errors.As(err, &ce) {
		if ce.cause != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ce.message, ce.cause)
		} else {
			fmt.Fprint(stderr, ce.message+FmtNewline)
		}
		return ce.code
	}
	fmt.Fprint(stderr, err.Error()+FmtNewline)
	return ExitCodeUsageError
}

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	logLevel string
	logger   *zap.Logger
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:           CLIName,
		Short:         CLIDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(g.logLevel, stderr)
			if err != nil {
				return newCLIError(ExitCodeUsageError, ErrMsgInvalidLogLevel, err)
			}
			g.logger = logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, FlagLogLevel, FlagDefaultLogLevel,
		"Log level: debug, info, warn, error")

	root.AddCommand(
		newCompileCmd(g, stdin, stdout),
		newDatasetCmd(g, stdout),
		newValidateCmd(g, stdin, stdout),
		newVersionCmd(stdout),
	)
	return root
}

// buildLogger writes console logs to w at the given level. Debug uses the
// development encoder.
func buildLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	if lvl == zapcore.DebugLevel {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core), nil
}
