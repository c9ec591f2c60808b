package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var parseUploadID string

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a queued EDD upload into a reviewable extraction",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, cfg, "parse")
		if err != nil {
			return err
		}
		defer env.Close()

		out, err := env.Parser.Parse(ctx, parseUploadID)
		if err != nil {
			return err
		}

		zap.L().Info("parse complete",
			zap.String("upload_id", out.UploadID),
			zap.Int("parsed_rows", out.Data.ParsedRows),
			zap.Int("learned_aliases", out.LearnedAliases),
		)
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseUploadID, "upload", "", "upload queue entry ID (required)")
	_ = parseCmd.MarkFlagRequired("upload")
	rootCmd.AddCommand(parseCmd)
}
