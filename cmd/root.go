// Package cmd implements the bogoseo command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bogoseo",
	Short: "bogoseo - 근거 기반 보고서 생성기",
	Long: `bogoseo는 수집한 자료와 배출량 통계를 근거로 전문 보고서를 생성합니다.

주제를 입력하면 목차를 설계하고, 각 절을 검색된 자료에 근거해 작성하며,
완성된 보고서를 docx 또는 pdf로 내보낼 수 있습니다.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
