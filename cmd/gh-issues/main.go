// Package main provides the gh-issues CLI: it fetches the GitHub issues a
// document references, walks paginated GitHub list endpoints, and serves
// both over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/gh-issue-client/pkg/config"
	"github.com/Sternrassler/gh-issue-client/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	configFile string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gh-issues",
	Short: "Fetch GitHub issue status for documents",
	Long: `gh-issues reads the issue references of an HTML document and fetches
the current title, state and labels of every referenced GitHub issue.

Configuration comes from flags, GH_ISSUES_* environment variables and an
optional config file.

Examples:
  gh-issues fetch spec.html --github_api https://api.github.com/repos/w3c/respec
  gh-issues fetch spec.html --annotate out.html
  gh-issues list /issues?state=open
  gh-issues serve --addr :8080 --redis_url redis://localhost:6379/0`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML, TOML or JSON config file")
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		return err
	}
	cfg = loaded
	logging.Setup(logging.FromConfig(cfg))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
