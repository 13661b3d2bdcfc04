package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Sternrassler/gh-issue-client/pkg/issues"
	"github.com/spf13/cobra"
)

var annotatePath string

var fetchCmd = &cobra.Command{
	Use:   "fetch <document.html>",
	Short: "Fetch every issue a document references",
	Long: `Fetch reads an HTML document ("-" for stdin), collects the data-number
attribute of every element with class "issue" and fetches those issues
from the configured repository. The issue index is printed as JSON.

Examples:
  gh-issues fetch spec.html
  gh-issues fetch - < spec.html
  gh-issues fetch spec.html --annotate spec.annotated.html`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&annotatePath, "annotate", "", "Write the document with issue status attributes to this path")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	doc, err := readDocument(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	index, err := a.issueFetcher(notifier()).FetchAndStore(ctx, cfg, doc)
	if err != nil {
		return err
	}

	if annotatePath != "" {
		if err := writeAnnotated(doc, index, annotatePath); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(index.Records())
}

func readDocument(path string, stdin io.Reader) (*issues.HTMLDocument, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open document: %w", err)
		}
		defer f.Close()
		r = f
	}
	doc, err := issues.ParseHTML(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func writeAnnotated(doc *issues.HTMLDocument, index issues.Index, path string) error {
	doc.Annotate(index)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := doc.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render document: %w", err)
	}
	return f.Close()
}
