package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gubarz/embedme/internal/config"
	"github.com/gubarz/embedme/internal/parser"
	"github.com/gubarz/embedme/internal/runner"
	"github.com/gubarz/embedme/internal/ui"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported code fence tags and their comment syntax",
	Args:  cobra.NoArgs,
	RunE:  runLanguages,
}

var rootCmd = &cobra.Command{
	Use:   "embedme [files...]",
	Short: "Embed source files into Markdown code fences",
	Long: `Keeps code samples in Markdown in sync with real source files.

A fence whose first line is a comment naming a file gets that file's
contents embedded below the comment:

  ` + "```ts" + `
  // src/example.ts#L10-L20
  ` + "```" + `

Use <!-- embedme path/to/file --> before a fence to embed without a
comment line, and <!-- embedme-ignore-next --> to leave a fence alone.`,
	Args: cobra.ArbitraryArgs,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(languagesCmd)

	flags := rootCmd.Flags()
	flags.Bool("verify", false, "Verify that running embedme would result in no changes. Useful for CI")
	flags.Bool("dry-run", false, "Run embedme as usual, but don't write")
	flags.String("source-root", "", "Directory your source files live in, to shorten the comment line in code fences")
	flags.Bool("silent", false, "No console output")
	flags.Bool("stdout", false, "Output resulting file to stdout (don't rewrite original)")
	flags.Bool("strip-embed-comment", false, "Remove the comments from the code fence. Must be run with --stdout")
	flags.Duration("fetch-timeout", 10*time.Second, "Timeout for fetching remote files")
	flags.Int("concurrency", 4, "Documents processed in parallel, and targets loaded in parallel per document")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	// Flags and args are valid by now; runtime errors don't need usage.
	cmd.SilenceUsage = true

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	reporter := ui.NewReporter(os.Stderr, cfg.Silent)
	r, err := runner.New(cfg, reporter, os.Stdout)
	if err != nil {
		return err
	}
	return r.Run(cmd.Context(), args)
}

func runLanguages(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tCOMMENT FAMILY")
	for _, tag := range parser.SupportedTags() {
		family, _ := parser.LookupFamily(tag)
		fmt.Fprintf(w, "%s\t%s\n", tag, family)
	}
	return w.Flush()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.Version = version
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
