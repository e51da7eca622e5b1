package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pedroananias/rag-3w-cot/internal/processor"
)

var processCmd = &cobra.Command{
	Use:   "process <corpus-dir>",
	Short: "Extract, clean and index the documents of a corpus",
	Long: `Sends every document of the corpus to the extraction service, cleans the
extracted elements and builds the vector index. Extractions and indexes are
cached per configuration fingerprint, so unchanged corpora are not rebuilt.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	addProcessFlags(processCmd)
	rootCmd.AddCommand(processCmd)
}

func addProcessFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("keep-going", false, "index the files that succeeded when others fail")
	cmd.Flags().StringSlice("exclude", nil, "glob patterns of corpus file names to skip")
}

func runProcess(cmd *cobra.Command, args []string) error {
	start := time.Now()
	keepGoing, _ := cmd.Flags().GetBool("keep-going")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ws, err := newWorkspace(cfg, args[0])
	if err != nil {
		return err
	}

	result, err := ws.process(cmd.Context(), exclude, keepGoing)
	if result != nil {
		printProcessResult(cmd.OutOrStdout(), result, time.Since(start))
	}
	return err
}

func printProcessResult(w io.Writer, r *processor.ProcessResult, d time.Duration) {
	fmt.Fprintln(w)
	if r.Reused {
		fmt.Fprintln(w, "Index is up to date.")
	} else {
		fmt.Fprintln(w, "Document processing complete!")
	}
	fmt.Fprintf(w, "  Files:           %d\n", r.Files)
	fmt.Fprintf(w, "  Extracted:       %d\n", r.Extracted)
	fmt.Fprintf(w, "  From cache:      %d\n", r.Cached)
	fmt.Fprintf(w, "  Failed:          %d\n", len(r.Errors))
	fmt.Fprintf(w, "  Documents:       %d\n", r.Documents)
	fmt.Fprintf(w, "  Duration:        %s\n", d.Round(time.Millisecond))
	fmt.Fprintf(w, "  Index:           %s\n", r.StoreDir)

	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "\nFailures (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %v\n", e)
		}
	}
}
