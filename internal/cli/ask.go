package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TWRT/taskflow/internal/models"
	"github.com/TWRT/taskflow/internal/repository"
	"github.com/TWRT/taskflow/internal/service"
	"github.com/spf13/cobra"
)

var (
	askUser      string
	askShowTasks bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Run one chatbot turn against a user's stored tasks",
	Long: `Ask the chatbot one question about a user's task list. Tasks added or
deleted by the chatbot are saved before the answer is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(askUser) == "" {
			return errors.New("--user is required")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		llm, err := a.languageModel()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.ChatTimeout)
		defer cancel()

		repo := repository.NewTaskRepository(a.db)
		tasks, err := repo.List(ctx, askUser, models.TaskFilter{})
		if err != nil {
			return fmt.Errorf("loading tasks: %w", err)
		}

		chatbot := service.NewChatbotService(llm, service.NewToolRegistry(repo, a.logger), nil, a.ackMode, a.logger)
		out, err := chatbot.Ask(ctx, askUser, service.AskInput{
			Question: strings.Join(args, " "),
			Tasks:    tasks,
		})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, out.Answer)
		if askShowTasks {
			for _, t := range out.Tasks {
				fmt.Fprintf(w, "  [%s] %s (%s)\n", t.Status, t.Title, t.Priority)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askUser, "user", "", "owner id of the task list")
	askCmd.Flags().BoolVar(&askShowTasks, "tasks", false, "print the task list after the answer")
	rootCmd.AddCommand(askCmd)
}
