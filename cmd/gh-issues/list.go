package main

import (
	"encoding/json"
	"errors"

	"github.com/Sternrassler/gh-issue-client/pkg/client"
	"github.com/Sternrassler/gh-issue-client/pkg/pagination"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <url-or-path>",
	Short: "Fetch every item of a paginated GitHub endpoint",
	Long: `List follows the Link rel="next" chain of a GitHub list endpoint and
prints all items as one JSON array. Paths are resolved against
--github_api, which is required even for absolute URLs.

Examples:
  gh-issues list /issues?state=all
  gh-issues list https://api.github.com/repos/w3c/respec/labels
  gh-issues list /pulls --max_pages 5`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.pageFetcher().FetchAll(ctx, a.listURL(args[0]), client.RequestHeaders(cfg), nil)
	if err != nil && !errors.Is(err, pagination.ErrPageLimit) {
		return err
	}
	if items == nil {
		items = []json.RawMessage{}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(items); encErr != nil {
		return encErr
	}
	return err
}
