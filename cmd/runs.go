package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pedroananias/rag-3w-cot/internal/db"
)

var runsCmd = &cobra.Command{
	Use:   "runs <corpus-dir> [run-id]",
	Short: "List recorded runs, or show one run in detail",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs listed")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")

	corpusDir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ledger, runs, err := openLedger(cfg, corpusDir)
	if err != nil {
		return err
	}
	defer ledger.Close()

	w := cmd.OutOrStdout()
	if len(args) == 2 {
		run, err := runs.Get(ctx, args[1])
		if err != nil {
			return err
		}
		answers, err := runs.Answers(ctx, run.ID)
		if err != nil {
			return err
		}
		scores, err := runs.Scores(ctx, run.ID)
		if err != nil {
			return err
		}
		printRun(w, run)
		fmt.Fprintln(w, "  Answers:")
		for i, a := range answers {
			fmt.Fprintf(w, "    %d. %s\n       %s\n", i+1, truncate(a.QuestionText, 100), a.ValueString())
		}
		printScores(w, scores)
		return nil
	}

	list, err := runs.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No runs recorded. Use `ragcot run` first.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tLLM\tQUESTIONS\tLATENCY")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s/%s\t%d\t%s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Status, r.LLM, r.Model,
			r.Questions, r.Latency.Round(time.Millisecond))
	}
	return tw.Flush()
}

func printRun(w io.Writer, r *db.Run) {
	fmt.Fprintf(w, "Run %s\n", r.ID)
	fmt.Fprintf(w, "  Started:         %s\n", r.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "  Status:          %s\n", r.Status)
	if r.Error != "" {
		fmt.Fprintf(w, "  Error:           %s\n", r.Error)
	}
	fmt.Fprintf(w, "  LLM:             %s (%s)\n", r.LLM, r.Model)
	fmt.Fprintf(w, "  Vector store:    %s\n", r.VectorStore)
	fmt.Fprintf(w, "  Fingerprint:     %s\n", r.Fingerprint)
	fmt.Fprintf(w, "  Questions:       %d\n", r.Questions)
	fmt.Fprintf(w, "  Latency:         %s\n", r.Latency.Round(time.Millisecond))
	fmt.Fprintf(w, "  Output:          %s\n", r.OutputDir)
}
