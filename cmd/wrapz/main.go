package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zoobzio/capitan"

	"github.com/zoobzio/wrapz"
)

var (
	version = "0.1.0"
	quiet   bool
	rootCmd = &cobra.Command{
		Use:   "wrapz",
		Short: "Behavioral wrapper demos",
		Long: `wrapz is a CLI tool for exploring behavioral wrappers through
scripted demonstrations.

Each demo builds a small function or constructor, wraps it, and shows
what the wrapper changes: quotas, type gates, error suppression,
predicate algebra, instance tracking, singletons, debug strings and
instance limits.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if !quiet {
				logSignals(cmd)
			}
		},
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Do not print wrapper signals")

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available demos",
	Long:  "Display a list of all available wrapper demos with descriptions.",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Available demos:")
		fmt.Fprintln(out)
		for _, ex := range getAllExamples() {
			fmt.Fprintf(out, "  %-14s %s\n", ex.Name(), ex.Description())
		}
	},
}

// logSignals prints wrapper signals to stderr as they are emitted.
func logSignals(cmd *cobra.Command) {
	errOut := cmd.ErrOrStderr()
	logTo := func(label string) func(context.Context, *capitan.Event) {
		return func(_ context.Context, e *capitan.Event) {
			name, _ := wrapz.FieldName.From(e)
			fmt.Fprintf(errOut, "%s[%s]%s %s", colorGray, label, colorReset, name)
			if msg, ok := wrapz.FieldMessage.From(e); ok {
				fmt.Fprintf(errOut, ": %s", msg)
			}
			if key, ok := wrapz.FieldKey.From(e); ok {
				fmt.Fprintf(errOut, " key=%s", key)
			}
			fmt.Fprintln(errOut)
		}
	}

	capitan.Hook(wrapz.SignalCallLimiterExhausted, logTo("calllimiter.exhausted"))
	capitan.Hook(wrapz.SignalIgnoreHandled, logTo("ignore.handled"))
	capitan.Hook(wrapz.SignalSingletonReused, logTo("singleton.reused"))
	capitan.Hook(wrapz.SignalLimiterDuplicate, logTo("limiter.duplicate"))
	capitan.Hook(wrapz.SignalLimiterOverflow, logTo("limiter.overflow"))
}
