package main

import (
	"os"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
