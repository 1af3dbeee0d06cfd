package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aqua777/docrag/schema"
	"github.com/spf13/cobra"
)

func newIngestCmd(libraryDir, dbPath, embedURL, embedModel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Process one or more documents and persist their chunks and embeddings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, paths []string) error {
			a, err := newApp(*libraryDir, *dbPath, *embedURL, *embedModel)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, path := range paths {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				doc := &schema.Document{DocumentMetadata: schema.DocumentMetadata{
					ID:       schema.NewDocumentID(),
					Name:     filepath.Base(path),
					FilePath: path,
					FileSize: info.Size(),
				}}

				processed, err := a.orch.Process(context.Background(), doc)
				if err != nil {
					return fmt.Errorf("ingesting %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d chunks)\n", path, processed.ID, len(processed.Chunks))
			}
			a.search.InvalidateCache()
			return nil
		},
	}
}
