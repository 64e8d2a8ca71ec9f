package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/auth"
	"github.com/jonathan/interview-coach/internal/call"
	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/feedback"
	"github.com/jonathan/interview-coach/internal/interviews"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/server"
	"github.com/jonathan/interview-coach/internal/server/ratelimit"
	"github.com/jonathan/interview-coach/internal/store"
	"github.com/jonathan/interview-coach/internal/voice"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the auth, interview, call and feedback endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close(context.Background()) }()

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	passwords, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	revocations, closeRevocations, err := openRevocations(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRevocations()

	llmCfg, err := llm.ConfigFor(cfg.LLMProvider)
	if err != nil {
		return err
	}
	client, err := llm.NewClient(ctx, llmCfg, cfg.LLMAPIKey())
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	feedbackGen, err := feedback.NewGenerator(client, st, logger)
	if err != nil {
		return err
	}
	interviewGen, err := interviews.NewGenerator(client, st, logger)
	if err != nil {
		return err
	}

	settings := call.Settings{WorkflowID: cfg.Voice.WorkflowID, AssistantID: cfg.Voice.AssistantID}
	opener := call.VoiceOpener{Client: voice.NewClient(cfg.Voice, logger)}
	calls := call.NewRegistry(opener, feedbackGen, settings, call.DefaultRetention, logger)

	srv := server.New(server.Config{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
		JWT:            jwtCfg,
		RateLimit:      ratelimit.LoadConfig(),
	}, server.Deps{
		Auth:       auth.NewService(st, passwords, auth.NewTokenService(jwtCfg), revocations, logger),
		Interviews: interviews.NewService(st, logger),
		Generator:  interviewGen,
		Calls:      calls,
		Feedback:   feedbackGen,
		Health:     st,
		Logger:     logger,
	})

	return srv.Run(ctx)
}

// openRevocations uses Redis when REDIS_URL is set so sign-outs survive restarts
// and are shared between replicas.
func openRevocations(ctx context.Context, cfg *config.App, logger *zap.Logger) (auth.Revocations, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("using in-memory session revocations")
		return auth.NewMemoryRevocations(), func() {}, nil
	}
	r, err := auth.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("using redis session revocations")
	return r, func() { _ = r.Close() }, nil
}
