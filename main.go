package main

import (
	"os"

	"github.com/pedroananias/rag-3w-cot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
