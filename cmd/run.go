package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/legate-ai/legate/internal/agent"
	"github.com/legate-ai/legate/internal/ui"
)

var runQuery string

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Run a single query and exit",
	Long: `Run sends one query through the agent, streams the answer to stdout,
and exits. Tool calls execute exactly as in the interactive mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query := runQuery
		if query == "" {
			query = strings.Join(args, " ")
		}
		if strings.TrimSpace(query) == "" {
			return errors.New("no query given; pass it as an argument or with -q")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Ctrl+C cancels between turns; an in-flight turn still finishes.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		_, _, sess, err := buildAgent(ctx, cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		renderer := ui.NewRenderer()
		ch, err := sess.Run(ctx, query)
		if err != nil {
			return err
		}

		streamingContent := false
		for item := range ch {
			if item.Kind != agent.ItemContent && streamingContent {
				fmt.Println()
				streamingContent = false
			}
			fmt.Print(renderer.RenderItem(item))
			if item.Kind == agent.ItemContent {
				streamingContent = true
			}
		}
		if streamingContent {
			fmt.Println()
		}

		// A provider failure already printed its error item; reflect it in
		// the exit code too.
		if err := sess.Err(); err != nil {
			cmd.SilenceErrors = true
			return err
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runQuery, "query", "q", "", "query to send")
}
