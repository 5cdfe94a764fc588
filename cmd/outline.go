package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bogoseo/bogoseo/internal/app"
	"github.com/bogoseo/bogoseo/internal/config"
	"github.com/bogoseo/bogoseo/internal/log"
)

var outlineJSON bool

var outlineCmd = &cobra.Command{
	Use:   "outline <주제>",
	Short: "보고서 목차 생성",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOutline(strings.Join(args, " "))
	},
}

func init() {
	outlineCmd.Flags().BoolVar(&outlineJSON, "json", false, "목차를 JSON으로 출력")
	rootCmd.AddCommand(outlineCmd)
}

func runOutline(topic string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{})
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() { _ = a.Close() }()

	result, err := a.Synthesizer.Synthesize(ctx, topic)
	if err != nil {
		return err
	}

	if outlineJSON {
		data, err := json.MarshalIndent(result.Outline, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(result.Template)
	return nil
}
