package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var (
	demoAll bool

	demoCmd = &cobra.Command{
		Use:   "demo [name]",
		Short: "Run scripted demonstrations",
		Long: `Run a scripted demonstration of one wrapper, or all of them with --all.

Run 'wrapz list' to see available demos.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) != 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}

			var completions []string
			for _, ex := range getAllExamples() {
				if strings.HasPrefix(ex.Name(), toComplete) {
					completions = append(completions, ex.Name())
				}
			}
			return completions, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			example := ""
			if len(args) > 0 {
				example = args[0]
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), example, demoAll)
		},
	}
)

func init() {
	demoCmd.Flags().BoolVar(&demoAll, "all", false, "Run all demos sequentially")
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[37m"
)

// runDemo runs a demo based on the example name.
func runDemo(ctx context.Context, out io.Writer, example string, all bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if all {
		return runAllDemos(ctx, out)
	}

	if example == "" {
		return fmt.Errorf("no demo given\n\nRun 'wrapz list' to see available demos, or pass --all")
	}

	ex, ok := getExampleByName(example)
	if !ok {
		return fmt.Errorf("unknown demo: %s\n\nRun 'wrapz list' to see available demos", example)
	}

	header(out, ex)
	return ex.Demo(ctx, out)
}

func runAllDemos(ctx context.Context, out io.Writer) error {
	fmt.Fprintln(out, colorCyan+"\n═══ RUNNING ALL DEMOS ═══"+colorReset)

	examples := getAllExamples()
	failed := 0
	for i, ex := range examples {
		fmt.Fprintf(out, "\n%s[%d/%d]%s ", colorYellow, i+1, len(examples), colorReset)
		header(out, ex)

		if err := ex.Demo(ctx, out); err != nil {
			fmt.Fprintf(out, "%sError in %s demo: %v%s\n", colorRed, ex.Name(), err, colorReset)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d demos failed", failed, len(examples))
	}
	fmt.Fprintln(out, colorGreen+"\n✅ All demos completed!"+colorReset)
	return nil
}

func header(out io.Writer, ex Example) {
	fmt.Fprintf(out, "%s═══ %s ═══%s\n", colorCyan, strings.ToUpper(ex.Name()), colorReset)
	fmt.Fprintf(out, "%s%s%s\n\n", colorGray, ex.Description(), colorReset)
}

// step prints one line of demo output: the expression and what it produced.
func step(out io.Writer, expr string, result any, err error) {
	if err != nil {
		fmt.Fprintf(out, "  %-34s %s→ error: %v%s\n", expr, colorRed, err, colorReset)
		return
	}
	fmt.Fprintf(out, "  %-34s %s→ %v%s\n", expr, colorGreen, result, colorReset)
}
