package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pedroananias/rag-3w-cot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize ragcot configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the LLM backend, vector store and embeddings model, and writes a .ragcot.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
