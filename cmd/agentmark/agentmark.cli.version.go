package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	agentmark "github.com/agentmark-ai/agentmark-sub003"
)

// versionInfo holds version information
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	GoVersion string `json:"go_version"`
}

// versionsYAML represents the versions.yaml file structure
type versionsYAML struct {
	Git struct {
		Commit string `yaml:"commit"`
		Branch string `yaml:"branch"`
	} `yaml:"git"`
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   CmdNameVersion,
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != OutputFormatText && format != OutputFormatJSON {
				return newCLIError(ExitCodeUsageError, ErrMsgInvalidFormat, nil)
			}
			v := getVersionInfo()
			if format == OutputFormatJSON {
				data, err := marshalOutput(v)
				if err != nil {
					return err
				}
				_, err = stdout.Write(data)
				return err
			}
			fmt.Fprintf(stdout, VersionTextTemplate+FmtNewline, v.Version, v.Commit, v.Branch, v.GoVersion)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, "Output format: text, json")
	return cmd
}

// getVersionInfo reports the library version and, when a versions.yaml is
// found in the working directory or a parent, its git details.
func getVersionInfo() *versionInfo {
	v := &versionInfo{
		Version:   agentmark.Version,
		Commit:    VersionUnknown,
		Branch:    VersionUnknown,
		GoVersion: runtime.Version(),
	}

	for _, dir := range []string{".", "..", filepath.Join("..", "..")} {
		data, err := os.ReadFile(filepath.Join(dir, VersionsFile))
		if err != nil {
			continue
		}
		var vy versionsYAML
		if err := yaml.Unmarshal(data, &vy); err != nil {
			continue
		}
		if vy.Git.Commit != "" {
			v.Commit = vy.Git.Commit
		}
		if vy.Git.Branch != "" {
			v.Branch = vy.Git.Branch
		}
		break
	}
	return v
}
