package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/elements/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	jsonErrors bool
	noColor    bool
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "elements",
		Short: "Custom element registry toolkit",
		Long: `elements defines custom elements from a manifest against an HTML
document and reports what the registry did.

  • check a manifest against the definition rules
  • upgrade a document and inspect element states
  • serve a live inspector with metrics and an event stream

Documents and manifests can be local files or s3:// objects.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
			jsonErrors = flags.jsonErrors
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to elements.json or its directory (default: search from working directory)")
	rootCmd.PersistentFlags().BoolVar(&flags.jsonErrors, "json-errors", false, "Print errors as JSON")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(
		initCmd(),
		checkCmd(flags),
		upgradeCmd(flags),
		serveCmd(flags),
		codesCmd(),
		versionCmd(),
	)
	return rootCmd
}

var jsonErrors bool

// printError prints err, formatted when it carries a code.
func printError(err error) {
	var coded *errors.Error
	if stderrors.As(err, &coded) {
		if jsonErrors {
			fmt.Fprintln(os.Stderr, coded.FormatJSON())
			return
		}
		errors.Print(os.Stderr, coded)
		return
	}
	fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
