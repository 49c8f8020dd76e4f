package main

import (
	"os"

	"github.com/KumarDhananjaya/Spendly/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
