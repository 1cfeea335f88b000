package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	taskmcp "github.com/TWRT/taskflow/internal/mcp"
	"github.com/TWRT/taskflow/internal/repository"
	"github.com/TWRT/taskflow/internal/service"
	"github.com/spf13/cobra"
)

var mcpUser string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Start the TaskFlow MCP server on stdio transport for one user.

The server exposes add_task, delete_task and list_tasks. No language model
is needed; the MCP client does the reasoning.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(mcpUser) == "" {
			return errors.New("--user is required")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		repo := repository.NewTaskRepository(a.db)
		srv := taskmcp.NewServer(repo, service.NewToolRegistry(repo, a.logger), mcpUser, appVersion, a.logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}
		return nil
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpUser, "user", "", "owner id of the task list")
	rootCmd.AddCommand(mcpCmd)
}
