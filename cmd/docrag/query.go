package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCmd(libraryDir, dbPath, embedURL, embedModel *string) *cobra.Command {
	var k int
	var docIDs string

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Retrieve the top matching chunks for a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*libraryDir, *dbPath, *embedURL, *embedModel)
			if err != nil {
				return err
			}
			defer a.Close()

			allowed, err := allowedDocumentIDs(a, docIDs)
			if err != nil {
				return err
			}

			results, err := a.search.Retrieve(context.Background(), args[0], allowed, k)
			if err != nil {
				return err
			}
			for i, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. [%.4f] %s: %s\n", i+1, r.Score, r.Chunk.DocumentID, truncate(r.Chunk.Content, 160))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&k, "k", 0, "number of chunks to retrieve (0 uses the configured default)")
	cmd.Flags().StringVar(&docIDs, "doc-ids", "", "comma-separated allow-list of document ids; empty means every ingested document")
	return cmd
}

// allowedDocumentIDs resolves --doc-ids, defaulting to every ingested
// document's id when the flag is empty so `query` works out of the box
// without forcing the caller to pass an allow-list by hand.
func allowedDocumentIDs(a *app, flagValue string) ([]string, error) {
	if flagValue != "" {
		return strings.Split(flagValue, ","), nil
	}
	all, err := a.repo.ListAll()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	return ids, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
