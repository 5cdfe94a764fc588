package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bogoseo/bogoseo/internal/app"
	"github.com/bogoseo/bogoseo/internal/config"
	"github.com/bogoseo/bogoseo/internal/ingest"
	"github.com/bogoseo/bogoseo/internal/log"
)

var crawlDepth int

var indexCmd = &cobra.Command{
	Use:   "index <경로|URL>",
	Short: "자료를 지식 저장소에 색인",
	Long: `로컬 파일, 디렉터리, 또는 웹 페이지를 지식 저장소에 색인합니다.
--depth를 1보다 크게 주면 같은 도메인의 링크를 따라가며 수집합니다.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndex(args[0])
	},
}

func init() {
	indexCmd.Flags().IntVar(&crawlDepth, "depth", 1, "크롤링 깊이 (URL 색인 시)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(source string) error {
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

	result, err := indexSource(ctx, a.Ingester, source)
	if err != nil {
		return err
	}

	fmt.Printf("색인 완료: 추가 %d, 건너뜀 %d, 삭제 %d, 실패 %d, 청크 %d (%s)\n",
		result.SourcesAdded, result.SourcesSkipped, result.SourcesRemoved,
		result.SourcesFailed, result.Chunks, result.Duration.Round(time.Millisecond))
	return nil
}

func indexSource(ctx context.Context, ing *ingest.Ingester, source string) (*ingest.Result, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if crawlDepth > 1 {
			return ing.Crawl(ctx, source, crawlDepth)
		}
		return ing.IngestURL(ctx, source)
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", source, err)
	}
	if info.IsDir() {
		return ing.IngestDirectory(ctx, source)
	}
	return ing.IngestFile(ctx, source)
}
