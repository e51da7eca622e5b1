package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pedroananias/rag-3w-cot/internal/pipeline"
	"github.com/pedroananias/rag-3w-cot/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report <run-dir>",
	Short: "Render the answers and retrieved documents of a run as HTML",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().String("out", "", "output file (default <run-dir>/report.html)")
	reportCmd.Flags().Int("max-docs", 5, "documents shown per question (0 for all)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	runDir := args[0]
	outPath, _ := cmd.Flags().GetString("out")
	maxDocs, _ := cmd.Flags().GetInt("max-docs")

	out, err := pipeline.OpenOutput(runDir)
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = out.Path(report.File)
	}

	answers, err := out.ReadAnswers()
	if err != nil {
		return err
	}
	queries, err := out.ReadQueries()
	if err != nil {
		return err
	}
	var scores map[string]float64
	if err := out.ReadJSON(pipeline.ScoresFile, &scores); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	renderer, err := report.NewRenderer()
	if err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()

	err = renderer.Render(f, report.Run{
		Title:        "Run " + filepath.Base(filepath.Clean(runDir)),
		Answers:      answers,
		Queries:      queries,
		Scores:       scores,
		MaxDocuments: maxDocs,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outPath)
	return f.Close()
}
