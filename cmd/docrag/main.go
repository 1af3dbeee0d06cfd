// Command docrag is a thin CLI wiring the ingestion and retrieval
// pipeline together for manual smoke-testing, independent of any
// desktop UI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var libraryDir, dbPath, embedURL, embedModel string

	root := &cobra.Command{
		Use:   "docrag",
		Short: "Local retrieval-augmented generation engine",
	}
	root.PersistentFlags().StringVar(&libraryDir, "library-dir", "./docrag-library", "directory holding metadata, content, and embeddings files")
	root.PersistentFlags().StringVar(&dbPath, "db", "./docrag-library/vectors.db", "path to the SQLite vector store")
	root.PersistentFlags().StringVar(&embedURL, "embed-url", "http://localhost:11434/api", "base URL of the embedding provider")
	root.PersistentFlags().StringVar(&embedModel, "embed-model", "nomic-embed-text", "embedding model name")

	root.AddCommand(newIngestCmd(&libraryDir, &dbPath, &embedURL, &embedModel))
	root.AddCommand(newQueryCmd(&libraryDir, &dbPath, &embedURL, &embedModel))
	return root
}
