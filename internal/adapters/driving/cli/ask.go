package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the PM-KISAN scheme",
	Long: `Answers a single question using the ingested PM-KISAN rules document.
The answer is grounded in the three most relevant chunks of the document.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := buildAskService(cfg)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	cmd.Println(svc.Ask(cmd.Context(), question))
	return nil
}
