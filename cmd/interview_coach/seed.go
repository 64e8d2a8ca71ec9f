package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/interviews"
	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/store"
	"github.com/jonathan/interview-coach/internal/types"
)

var (
	seedFile string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load finalized interviews from a YAML file",
	Long: `Insert pre-built interviews into the configured store so the dashboard
has content before anyone generates their own. Seeded interviews are finalized.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to the seed YAML file")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}

// seedDocument is the layout of a seed file.
type seedDocument struct {
	UserID     string          `yaml:"userId"`
	Interviews []seedInterview `yaml:"interviews"`
}

type seedInterview struct {
	Role       string   `yaml:"role"`
	Level      string   `yaml:"level"`
	Type       string   `yaml:"type"`
	Techstack  []string `yaml:"techstack"`
	Questions  []string `yaml:"questions"`
	CoverImage string   `yaml:"coverImage"`
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadStore()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	f, err := os.Open(seedFile)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := parseSeed(f)
	if err != nil {
		return err
	}
	list, err := doc.build(time.Now().UTC(), interviews.RandomCover)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close(context.Background()) }()

	if err := insertSeed(ctx, st, list); err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintInterviewList("SEEDED INTERVIEWS", list)
	return nil
}

func parseSeed(r io.Reader) (*seedDocument, error) {
	var doc seedDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if len(doc.Interviews) == 0 {
		return nil, fmt.Errorf("seed file has no interviews")
	}
	return &doc, nil
}

// build turns the document into finalized interviews. An empty userId seeds
// them under the nil owner so they appear in every user's latest list.
func (d *seedDocument) build(now time.Time, cover func() string) ([]types.Interview, error) {
	owner := uuid.Nil
	if d.UserID != "" {
		id, err := uuid.Parse(d.UserID)
		if err != nil {
			return nil, fmt.Errorf("invalid userId %q: %w", d.UserID, err)
		}
		owner = id
	}

	list := make([]types.Interview, 0, len(d.Interviews))
	for i, si := range d.Interviews {
		if strings.TrimSpace(si.Role) == "" {
			return nil, fmt.Errorf("interview %d: role is required", i+1)
		}

		questions := make([]string, 0, len(si.Questions))
		for _, q := range si.Questions {
			if q = interviews.SanitizeQuestion(q); q != "" {
				questions = append(questions, q)
			}
		}
		if len(questions) == 0 {
			return nil, fmt.Errorf("interview %d (%s): at least one question is required", i+1, si.Role)
		}

		img := si.CoverImage
		if img == "" {
			img = cover()
		}

		list = append(list, types.Interview{
			ID:         uuid.New(),
			UserID:     owner,
			Role:       strings.TrimSpace(si.Role),
			Level:      si.Level,
			Type:       si.Type,
			Techstack:  si.Techstack,
			Questions:  questions,
			Finalized:  true,
			CoverImage: img,
			// Distinct timestamps keep the file order in the latest list.
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		})
	}
	return list, nil
}

type interviewWriter interface {
	CreateInterview(ctx context.Context, iv *types.Interview) error
}

func insertSeed(ctx context.Context, w interviewWriter, list []types.Interview) error {
	for i := range list {
		if err := w.CreateInterview(ctx, &list[i]); err != nil {
			return fmt.Errorf("failed to insert interview %q: %w", list[i].Role, err)
		}
	}
	return nil
}
