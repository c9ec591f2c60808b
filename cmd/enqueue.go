package main

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/edd-cli/internal/blob"
	"github.com/sells-group/edd-cli/internal/model"
)

var (
	enqueueFile     string
	enqueueOrgID    string
	enqueueUserID   string
	enqueueCategory string
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Upload a local file to the blob store and queue it for parsing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("parse"); err != nil {
			return err
		}

		f, err := os.Open(enqueueFile)
		if err != nil {
			return eris.Wrapf(err, "open %s", enqueueFile)
		}
		defer f.Close() //nolint:errcheck

		blobs, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return err
		}
		name := filepath.Base(enqueueFile)
		key := enqueueOrgID + "/" + uuid.NewString() + "/" + name
		if err := blobs.Put(ctx, key, f); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		entry := &model.QueueEntry{
			OrgID:       enqueueOrgID,
			UploadedBy:  enqueueUserID,
			StoragePath: key,
			FileName:    name,
			Category:    enqueueCategory,
		}
		if err := st.CreateUpload(ctx, entry); err != nil {
			return err
		}

		zap.L().Info("upload queued",
			zap.String("upload_id", entry.ID),
			zap.String("storage_path", key),
		)
		return printJSON(cmd.OutOrStdout(), entry)
	},
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueFile, "file", "", "path to the local file (required)")
	enqueueCmd.Flags().StringVar(&enqueueOrgID, "org", "", "owning organization ID (required)")
	enqueueCmd.Flags().StringVar(&enqueueUserID, "user", "", "uploading user ID")
	enqueueCmd.Flags().StringVar(&enqueueCategory, "category", model.CategoryLabData, "declared upload category")
	_ = enqueueCmd.MarkFlagRequired("file")
	_ = enqueueCmd.MarkFlagRequired("org")
	rootCmd.AddCommand(enqueueCmd)
}
