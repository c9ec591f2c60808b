package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/edd-cli/internal/importer"
	"github.com/sells-group/edd-cli/internal/model"
)

var (
	importUploadID string
	importUserID   string
	importOrgID    string
	importRole     string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an approved extraction as sampling events and lab results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, cfg, "import")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Importer.Import(ctx, importer.Request{
			UploadID: importUploadID,
			Caller: &model.Caller{
				UserID: importUserID,
				OrgID:  importOrgID,
				Role:   importRole,
			},
		})
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.String("upload_id", importUploadID),
			zap.Int("events_created", res.EventsCreated),
			zap.Int("results_created", res.ResultsCreated),
		)
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	importCmd.Flags().StringVar(&importUploadID, "upload", "", "upload queue entry ID (required)")
	importCmd.Flags().StringVar(&importUserID, "user", "", "caller user ID (required)")
	importCmd.Flags().StringVar(&importOrgID, "org", "", "caller organization ID (required)")
	importCmd.Flags().StringVar(&importRole, "role", "", "caller role within the organization (required)")
	for _, f := range []string{"upload", "user", "org", "role"} {
		_ = importCmd.MarkFlagRequired(f)
	}
	rootCmd.AddCommand(importCmd)
}
