package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ent0n29/deskpilot/internal/app"
)

func newSayCmd(c *cli) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "say [utterance]",
		Short: "Run a single command and print the response",
		Example: `  deskpilot say open firefox
  deskpilot say "create a file named notes dot txt"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := app.Build(cmd.Context(), c.cfg, c.logger, app.Options{})
			if err != nil {
				return err
			}
			defer built.Cleanup()

			out := built.Pipeline.Handle(cmd.Context(), strings.Join(args, " "))
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] ", out.Tier, out.Command.Kind)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Response)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "prefix the response with the resolving tier and command")
	return cmd
}

func newReplCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read commands from stdin, one per line, until exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			built, err := app.Build(cmd.Context(), c.cfg, c.logger, app.Options{})
			if err != nil {
				return err
			}
			defer built.Cleanup()
			c.logger.Debug("repl started", zap.String("resolver_backend", built.ResolverBackend))
			return repl(cmd, built)
		},
	}
}

func repl(cmd *cobra.Command, built *app.BuildResult) error {
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())
	prompt(out)
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		switch strings.ToLower(line) {
		case "":
			prompt(out)
			continue
		case "exit", "quit", "bye":
			fmt.Fprintln(out, "Goodbye.")
			return nil
		}
		fmt.Fprintln(out, built.Pipeline.Respond(cmd.Context(), line))
		prompt(out)
	}
	return in.Err()
}

func prompt(w io.Writer) {
	fmt.Fprint(w, "> ")
}
