package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bogoseo/bogoseo/internal/app"
	"github.com/bogoseo/bogoseo/internal/config"
	"github.com/bogoseo/bogoseo/internal/export"
	"github.com/bogoseo/bogoseo/internal/log"
	"github.com/bogoseo/bogoseo/internal/report"
)

var (
	reportOutput string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report <주제>",
	Short: "보고서 생성",
	Long: `주제에 대한 목차를 설계한 뒤 각 절을 순서대로 생성합니다.
생성 과정은 터미널에 실시간으로 출력되며, -o 플래그로 docx 또는 pdf
파일로 저장할 수 있습니다.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(strings.Join(args, " "))
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "저장할 파일 경로")
	reportCmd.Flags().StringVar(&reportFormat, "format", export.FormatDocx, "저장 형식 (docx, pdf)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(topic string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if reportOutput != "" && export.ContentType(reportFormat) == "" {
		return fmt.Errorf("%w: %q", export.ErrInvalidFormat, reportFormat)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{})
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() { _ = a.Close() }()

	synthesized, err := a.Synthesizer.Synthesize(ctx, topic)
	if err != nil {
		return fmt.Errorf("synthesizing outline: %w", err)
	}
	fmt.Println(synthesized.Outline.Title)

	input := report.Input{Topic: topic, Outline: synthesized.Outline}

	var output report.Output
	for streamValue, err := range a.ReportFlow.Stream(ctx, input) {
		if err != nil {
			return fmt.Errorf("generating report: %w", err)
		}
		if streamValue.Done {
			output = streamValue.Output
			break
		}
		printEvent(streamValue.Stream)
	}

	if reportOutput == "" {
		return nil
	}
	return saveReport(output, reportFormat, reportOutput)
}

func printEvent(ev report.Event) {
	switch ev.Type {
	case report.EventSectionTitle:
		fmt.Printf("\n\n## %s\n\n", ev.Payload)
	case report.EventContent:
		fmt.Print(ev.Payload)
	case report.EventError:
		fmt.Printf("\n[오류] %s\n", ev.Payload)
	case report.EventDone:
		fmt.Printf("\n\n%s\n", ev.Payload)
	}
}

func saveReport(output report.Output, format, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc := export.ParseContent(output.Title, output.Content)
	if err := export.Export(f, format, doc); err != nil {
		return fmt.Errorf("exporting report: %w", err)
	}
	fmt.Printf("저장 완료: %s\n", path)
	return nil
}
