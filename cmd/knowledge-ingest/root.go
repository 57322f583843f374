package main

import (
	"context"
	"fmt"
	"io"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/builder"
	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/knowledge"
)

const (
	defaultKnowledgeDir = "data/knowledge"
	sampleRunes         = 300
)

type options struct {
	env    string
	dir    string
	dryRun bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "knowledge-ingest",
		Short: "Index the vine disease knowledge sheets into the vector store",
		Long: `Reads the markdown knowledge sheets, splits them on level-1 headings,
embeds every chunk and writes it to the knowledge collection.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.dryRun {
				return runDryRun(cmd.OutOrStdout(), opts.dir)
			}
			return runIngest(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.env, "env", "local", "environment whose .env file is loaded")
	cmd.Flags().StringVar(&opts.dir, "dir", defaultKnowledgeDir, "directory of *.md knowledge sheets (defaults to RETRIEVAL_KNOWLEDGE_DIR)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "parse and chunk the sheets without writing anything")

	return cmd
}

func loadChunks(dir string) ([]knowledge.Sheet, []entity.KnowledgeChunk, error) {
	sheets, err := knowledge.LoadSheets(dir)
	if err != nil {
		return nil, nil, err
	}
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("no knowledge sheets found in %s", dir)
	}
	return sheets, knowledge.BuildChunks(sheets), nil
}

func runDryRun(out io.Writer, dir string) error {
	sheets, chunks, err := loadChunks(dir)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d sheet(s), %d chunk(s) in %s\n", len(sheets), len(chunks), dir)
	if len(chunks) > 0 {
		sample := chunks[0]
		fmt.Fprintf(out, "\nsample chunk (%s / %s, farming_mode=%q):\n%s\n",
			sample.DiseaseID, sample.Section, sample.FarmingMode, truncate(sample.Text, sampleRunes))
	}

	return nil
}

func runIngest(ctx context.Context, cmd *cobra.Command, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ingestion, err := builder.BuildIngestion(opts.env)
	if err != nil {
		return err
	}
	logger := ingestion.Logger
	defer func() { _ = logger.Sync() }()

	dir := opts.dir
	if !cmd.Flags().Changed("dir") && ingestion.Config.RetrievalCfg.KnowledgeDir != "" {
		dir = ingestion.Config.RetrievalCfg.KnowledgeDir
	}

	sheets, chunks, err := loadChunks(dir)
	if err != nil {
		return err
	}

	ctx = ctxzap.ToContext(ctx, logger.With(zap.String("collection", ingestion.Config.RetrievalCfg.Collection)))
	ctxzap.Info(ctx, "ingesting knowledge",
		zap.String("dir", dir),
		zap.Int("sheets", len(sheets)),
		zap.Int("chunks", len(chunks)),
	)

	report, err := ingestion.Ingester.Ingest(ctx, chunks)
	if err != nil {
		return fmt.Errorf("ingest knowledge: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d chunk(s) in %d batch(es)\n", report.Chunks, report.Batches)
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
