package cmd

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pedroananias/rag-3w-cot/internal/db"
	"github.com/pedroananias/rag-3w-cot/internal/embeddings"
	"github.com/pedroananias/rag-3w-cot/internal/evaluation"
	"github.com/pedroananias/rag-3w-cot/internal/pipeline"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <run-dir>",
	Short: "Score the answers of a run against ground truth",
	Long:  `Compares the answers.json of a run directory with the ground-truth answers and writes scores.json next to it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().String("truth", "", "ground-truth answers (default <corpus-dir>/true_answers.json)")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	runDir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	corpusDir := corpusOfRun(runDir)
	truthPath, _ := cmd.Flags().GetString("truth")
	if truthPath == "" {
		truthPath = filepath.Join(corpusDir, evaluation.TruthFile)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out, err := pipeline.OpenOutput(runDir)
	if err != nil {
		return err
	}
	answers, err := out.ReadAnswers()
	if err != nil {
		return err
	}
	truths, err := evaluation.LoadTruths(truthPath)
	if err != nil {
		return err
	}

	embedder, err := embeddings.New(cfg.EmbeddingsModel, embeddings.Options{
		BatchSize: cfg.EmbeddingsBatchSize,
		Precision: cfg.EmbeddingsPrecision,
	})
	if err != nil {
		logger.Warn("embeddings unavailable, skipping embedding similarity", "error", err)
		embedder = nil
	}
	scores := evaluation.Evaluate(ctx, evaluation.DefaultMetrics(embedder), evaluation.Pairs(answers, truths), logger)

	ledger, runs, err := openLedger(cfg, corpusDir)
	if err != nil {
		return err
	}
	defer ledger.Close()

	var runID string
	if run, err := runs.ByOutputDir(ctx, runDir); err == nil {
		runID = run.ID
	} else if !errors.Is(err, db.ErrRunNotFound) {
		return err
	} else {
		logger.Debug("run not in ledger, scores only written to disk", "dir", runDir)
	}

	if err := saveScores(ctx, out, runs, runID, scores); err != nil {
		return err
	}
	printScores(cmd.OutOrStdout(), scores)
	return nil
}
