package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/interviews"
	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/store"
)

var (
	feedbackInterviewID string
	feedbackUserID      string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Inspect stored feedback",
}

var feedbackShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the feedback a user received for an interview",
	RunE:  runFeedbackShow,
}

func init() {
	feedbackShowCmd.Flags().StringVar(&feedbackInterviewID, "interview", "", "Interview ID")
	feedbackShowCmd.Flags().StringVar(&feedbackUserID, "user", "", "User ID")
	_ = feedbackShowCmd.MarkFlagRequired("interview")
	_ = feedbackShowCmd.MarkFlagRequired("user")
	feedbackCmd.AddCommand(feedbackShowCmd)
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedbackShow(cmd *cobra.Command, _ []string) error {
	interviewID, err := uuid.Parse(feedbackInterviewID)
	if err != nil {
		return fmt.Errorf("invalid --interview: %w", err)
	}
	userID, err := uuid.Parse(feedbackUserID)
	if err != nil {
		return fmt.Errorf("invalid --user: %w", err)
	}

	cfg, err := config.LoadStore()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close(context.Background()) }()

	return showFeedback(ctx, st, logger, cmd.OutOrStdout(), interviewID, userID)
}

func showFeedback(ctx context.Context, repo interviews.Repository, logger *zap.Logger, out io.Writer, interviewID, userID uuid.UUID) error {
	svc := interviews.NewService(repo, logger)

	iv := svc.ByID(ctx, interviewID)
	if iv == nil {
		return fmt.Errorf("interview %s not found", interviewID)
	}
	fb := svc.FeedbackByInterviewAndUser(ctx, interviewID, userID)
	if fb == nil {
		return fmt.Errorf("no feedback for interview %s and user %s", interviewID, userID)
	}

	p := observability.NewPrinter(out)
	p.PrintInterview(iv)
	p.PrintFeedback(fb)
	return nil
}
