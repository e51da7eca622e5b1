package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pedroananias/rag-3w-cot/internal/models"
	"github.com/pedroananias/rag-3w-cot/internal/pipeline"
)

var queryCmd = &cobra.Command{
	Use:   "query <corpus-dir> [question]",
	Short: "Show the documents retrieved for questions",
	Long: `Runs query processing against an existing index and prints the files and
documents each question retrieves. Without a question argument, every
question of the corpus questions file is processed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("kind", "name", "answer kind of the question: number, name, boolean or names")
	queryCmd.Flags().String("questions", "", "questions file (default <corpus-dir>/questions.json)")
	queryCmd.Flags().StringSlice("exclude", nil, "glob patterns of corpus file names to skip")
	queryCmd.Flags().Int("limit", 5, "documents shown per question")
	queryCmd.Flags().Bool("json", false, "output the full query dumps as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	corpusDir := args[0]
	kind, _ := cmd.Flags().GetString("kind")
	questionsPath, _ := cmd.Flags().GetString("questions")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var queries []*models.Query
	if len(args) == 2 {
		queries = []*models.Query{models.NewQuery(args[1], kind)}
	} else {
		if questionsPath == "" {
			questionsPath = filepath.Join(corpusDir, pipeline.QuestionsFile)
		}
		if queries, err = pipeline.LoadQueries(questionsPath); err != nil {
			return err
		}
	}

	ws, err := newWorkspace(cfg, corpusDir)
	if err != nil {
		return err
	}
	queries, err = ws.retrieve(cmd.Context(), queries, exclude)
	if err != nil {
		return err
	}

	if jsonOutput {
		dumps := make([]models.QueryDump, len(queries))
		for i, q := range queries {
			dumps[i] = q.Dump()
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(dumps)
	}
	printQueries(cmd.OutOrStdout(), queries, limit)
	return nil
}

func printQueries(w io.Writer, queries []*models.Query, limit int) {
	for i, q := range queries {
		fmt.Fprintf(w, "%d. %s [%s]\n", i+1, q.QuestionText, q.Kind)
		if q.QuestionExpanded != q.QuestionText {
			fmt.Fprintf(w, "   Expanded: %s\n", q.QuestionExpanded)
		}
		fmt.Fprintf(w, "   Files:    %v\n", q.RelevantFiles)
		fmt.Fprintf(w, "   Found %d documents\n", len(q.RelevantDocuments))

		for j, d := range q.RelevantDocuments {
			if limit > 0 && j >= limit {
				break
			}
			fmt.Fprintf(w, "     [%.3f] %s p.%d (%s)\n", d.ScoreOrZero(), d.Metadata.Owner, d.Metadata.PageIndex, d.Metadata.ContentType)
			fmt.Fprintf(w, "       %s\n", truncate(d.PageContent, 120))
		}
		fmt.Fprintln(w)
	}
}
