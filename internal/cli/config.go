package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate and print the effective configuration",
		Long: `Load --config (or the defaults), validate it against the schema and
print the result.

Examples:
  quill config
  quill config --config ./quill.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newOutputFormatter(rootOpts, cmd)
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return out.Fail(err)
			}

			if rootOpts.Format == "json" {
				return out.Success(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return out.Fail(WrapExitError(ExitCommandError, CodeConfig, "failed to encode config", err))
			}
			return out.Success(strings.TrimRight(string(data), "\n"))
		},
	}

	return cmd
}
