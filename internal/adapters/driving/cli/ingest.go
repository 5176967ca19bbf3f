package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the knowledge base from the source PDF",
	Long: `Reads the PM-KISAN rules PDF, splits it into overlapping chunks,
embeds every chunk, and persists the vector index. Any existing index is
replaced atomically; a failed run leaves the previous index untouched.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := buildIngestService(cfg)
	if err != nil {
		return err
	}

	report, err := svc.Ingest(cmd.Context())
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("Ingestion complete: %d pages, %d chunks indexed (%s, %d dimensions)\n",
		report.Pages, report.Chunks, report.Model, report.Dimensions)
	return nil
}
