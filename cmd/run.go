package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pedroananias/rag-3w-cot/internal/config"
	"github.com/pedroananias/rag-3w-cot/internal/db"
	"github.com/pedroananias/rag-3w-cot/internal/evaluation"
	"github.com/pedroananias/rag-3w-cot/internal/llm"
	"github.com/pedroananias/rag-3w-cot/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run <corpus-dir>",
	Short: "Process the corpus and answer its questions end to end",
	Long: `Builds or reuses the index, retrieves documents for every question of the
questions file, answers them with the chain-of-thought pipeline and writes
all artifacts to <corpus-dir>/output/<timestamp>. When a ground-truth file
is present the answers are scored. Every run is recorded in the run ledger.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	addProcessFlags(runCmd)
	runCmd.Flags().String("questions", "", "questions file (default <corpus-dir>/questions.json)")
	runCmd.Flags().String("truth", "", "ground-truth answers (default <corpus-dir>/true_answers.json)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()
	keepGoing, _ := cmd.Flags().GetBool("keep-going")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	questionsPath, _ := cmd.Flags().GetString("questions")
	truthPath, _ := cmd.Flags().GetString("truth")

	corpusDir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if questionsPath == "" {
		questionsPath = filepath.Join(corpusDir, pipeline.QuestionsFile)
	}
	if truthPath == "" {
		truthPath = filepath.Join(corpusDir, evaluation.TruthFile)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	queries, err := pipeline.LoadQueries(questionsPath)
	if err != nil {
		return err
	}
	ws, err := newWorkspace(cfg, corpusDir)
	if err != nil {
		return err
	}
	gen, err := llm.NewGeneratorFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating LLM: %w", err)
	}

	out, err := pipeline.NewRunOutput(corpusDir, start)
	if err != nil {
		return err
	}
	if err := cfg.Export(out.Path(pipeline.SettingsFile)); err != nil {
		return err
	}

	ledger, runs, err := openLedger(cfg, corpusDir)
	if err != nil {
		return err
	}
	defer ledger.Close()

	runID, err := runs.Start(ctx, db.Run{
		CreatedAt:   start,
		Corpus:      corpusDir,
		OutputDir:   out.Dir,
		LLM:         cfg.LLM,
		Model:       gen.Model(),
		VectorStore: cfg.Processing.VectorStore,
		Fingerprint: cfg.VectorStoreFingerprint(),
		Questions:   len(queries),
	})
	if err != nil {
		return err
	}
	logger.Info("run started", "id", runID, "output", out.Dir, "questions", len(queries))

	fail := func(err error) error {
		if ferr := runs.Fail(context.WithoutCancel(ctx), runID, err); ferr != nil {
			logger.Warn("recording failed run", "id", runID, "error", ferr)
		}
		return err
	}

	result, err := ws.process(ctx, exclude, keepGoing)
	if err != nil {
		return fail(err)
	}
	if len(result.Errors) > 0 {
		logger.Warn("continuing without failed files", "failed", len(result.Errors))
	}

	queries, err = ws.retrieve(ctx, queries, exclude)
	if err != nil {
		return fail(err)
	}
	if err := out.WriteQueries(queries); err != nil {
		return fail(err)
	}

	answers, err := pipeline.NewCoT(gen, out, logger).Run(ctx, queries)
	if err != nil {
		return fail(fmt.Errorf("answering: %w", err))
	}

	latency := time.Since(start)
	if err := out.WriteAnswers(answers); err != nil {
		return fail(err)
	}
	if err := out.WriteLatency(latency); err != nil {
		return fail(err)
	}
	if err := runs.Complete(ctx, runID, latency, answers); err != nil {
		return err
	}

	var scores map[string]float64
	if _, err := os.Stat(truthPath); err == nil {
		truths, err := evaluation.LoadTruths(truthPath)
		if err != nil {
			return err
		}
		scores = evaluation.Evaluate(ctx, evaluation.DefaultMetrics(ws.embedder), evaluation.Pairs(answers, truths), logger)
		if err := saveScores(ctx, out, runs, runID, scores); err != nil {
			return err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	} else {
		logger.Debug("no ground truth, skipping evaluation", "path", truthPath)
	}

	printRunSummary(cmd.OutOrStdout(), cfg, gen, runID, out, len(answers), latency, scores)
	return nil
}

// saveScores writes scores.json and records the scores in the ledger.
func saveScores(ctx context.Context, out *pipeline.Output, runs *db.RunStore, runID string, scores map[string]float64) error {
	if err := out.WriteJSON(pipeline.ScoresFile, scores); err != nil {
		return err
	}
	if runID == "" {
		return nil
	}
	return runs.SaveScores(ctx, runID, scores)
}

func printRunSummary(w io.Writer, cfg *config.Config, gen *llm.Generator, runID string, out *pipeline.Output, answered int, latency time.Duration, scores map[string]float64) {
	input, output, requests := gen.Usage()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run complete!")
	fmt.Fprintf(w, "  Run:             %s\n", runID)
	fmt.Fprintf(w, "  Answers:         %d\n", answered)
	fmt.Fprintf(w, "  LLM:             %s (%s)\n", cfg.LLM, gen.Model())
	fmt.Fprintf(w, "  Requests:        %d\n", requests)
	fmt.Fprintf(w, "  Tokens used:     %d input, %d output\n", input, output)
	if cost := llm.EstimateCost(gen.Model(), input, output); cost > 0 {
		fmt.Fprintf(w, "  Estimated cost:  $%.4f\n", cost)
	}
	fmt.Fprintf(w, "  Latency:         %s\n", latency.Round(time.Millisecond))
	fmt.Fprintf(w, "  Output:          %s\n", out.Dir)
	printScores(w, scores)
}

func printScores(w io.Writer, scores map[string]float64) {
	if len(scores) == 0 {
		return
	}
	fmt.Fprintln(w, "  Scores:")
	for _, name := range db.SortedMetrics(scores) {
		fmt.Fprintf(w, "    %-28s %.4f\n", name, scores[name])
	}
}
