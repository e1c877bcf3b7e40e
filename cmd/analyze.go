package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/satriahrh/sikap/internal/audio"
	"github.com/satriahrh/sikap/internal/config"
)

func newAnalyzeCommand() *cobra.Command {
	var (
		question string
		segments int
	)

	cmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Analyze one recorded answer and print the JSON report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return analyze(ctx, args[0], question, segments)
		},
	}
	cmd.Flags().StringVarP(&question, "question", "q", "", "interview question the recording answers")
	cmd.Flags().IntVarP(&segments, "segments", "n", 0, "number of segments (default from config)")
	return cmd
}

func analyze(ctx context.Context, path, question string, segments int) error {
	logger, err := newLogger(false)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if segments > 0 {
		cfg.Analysis.Segments = segments
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	track, err := audio.Decode(data)
	if err != nil {
		return err
	}

	svc, err := buildServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	report, err := svc.reports.Generate(ctx, question, track)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
