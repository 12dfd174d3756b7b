package main

import (
	"os"

	"print-relay/internal/cli"
	"print-relay/internal/logger"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		logger.New("bootstrap").Error("fatal", err, nil)
		os.Exit(1)
	}
}
