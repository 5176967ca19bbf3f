package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sahay-labs/sahay-cli/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Opens an interactive terminal session for asking questions about the
PM-KISAN scheme. Every question and answer is appended to the interaction log.

Controls:
  Enter - Ask the typed question
  Esc   - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := buildAskService(cfg)
	if err != nil {
		return err
	}

	model := tui.NewChat(cmd.Context(), svc)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat session error: %w", err)
	}
	return nil
}
