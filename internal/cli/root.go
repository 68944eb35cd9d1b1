package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/fetchx/internal/logger"
	"github.com/wesleyorama2/fetchx/internal/output"
)

var version = "0.1.0"

// errReported marks an error whose details were already written to the
// command output; Execute only turns it into an exit status.
type errReported struct {
	err error
}

func (e errReported) Error() string { return e.err.Error() }

func (e errReported) Unwrap() error { return e.err }

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "fetchx",
		Short:   "A terminal HTTP client with normalized responses and errors",
		Version: version,
		Long: `fetchx sends HTTP requests and reports the outcome in one shape:
either a parsed response, or an error tagged timeout, httpErrorResponse
or networkError. Requests can be typed on the command line, replayed from
a YAML collection, or fired repeatedly for a quick latency benchmark.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose output")
	flags.Bool("no-color", false, "Disable colored output")
	flags.StringP("format", "o", string(output.FormatText), "Output format: text, json or yaml")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error")
	flags.String("log-format", "console", "Log format: console or json")

	root.AddCommand(
		newGetCmd(),
		newDeleteCmd(),
		newPostCmd(),
		newPutCmd(),
		newPatchCmd(),
		newRunCmd(),
		newBenchCmd(),
	)

	return root
}

// Execute runs the command tree against os.Args.
// This is called by main.main().
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	var reported errReported
	if err != nil && !errors.As(err, &reported) {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

// globalFlags are the persistent flags every command reads.
type globalFlags struct {
	verbose bool
	noColor bool
	format  output.OutputFormat
	logger  zerolog.Logger
}

func readGlobalFlags(cmd *cobra.Command) (globalFlags, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")
	formatFlag, _ := cmd.Flags().GetString("format")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")

	format, err := output.ParseFormat(formatFlag)
	if err != nil {
		return globalFlags{}, err
	}

	log, err := logger.New(logger.Config{
		Level:   logLevel,
		Format:  logFormat,
		NoColor: output.ColorDisabled(cmd.ErrOrStderr(), noColor),
		Output:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return globalFlags{}, err
	}

	return globalFlags{
		verbose: verbose,
		noColor: output.ColorDisabled(cmd.OutOrStdout(), noColor),
		format:  format,
		logger:  log,
	}, nil
}

func (g globalFlags) formatter() output.FormatProvider {
	return output.GetFormatter(g.format, g.verbose, g.noColor)
}
