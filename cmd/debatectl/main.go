package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"debate-adjudicator/internal/config"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	config.LoadDotEnv()

	root := &cobra.Command{
		Use:   "debatectl",
		Short: "Command-line tools for the debate adjudicator",
		Long:  "Runs the adjudication pipeline against a local transcript file, or drives a running API end to end.",
	}

	root.AddCommand(newAdjudicateCmd())
	root.AddCommand(newSmokeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
