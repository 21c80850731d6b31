package ctl

import (
	"context"
	"fmt"

	"github.com/budgetguard/techops/internal/export"
)

// Export builds the export document from the persisted matrix and writes it
// to outPath, publishing to the configured S3 bucket as well when s3Key is
// set.
func Export(ctx context.Context, outPath, s3Key string) error {
	if outPath == "" && s3Key == "" {
		return fmt.Errorf("-out or -s3-key is required")
	}

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	status, err := rt.credentials.Status(ctx)
	if err != nil {
		return err
	}

	doc := export.BuildDocument(rt.mat.Snapshot(), status)

	if outPath != "" {
		if err := export.WriteFile(doc, outPath); err != nil {
			return err
		}
		fmt.Printf("export document written to %s\n", outPath)
	}

	if s3Key != "" {
		if rt.cfg.ExportS3Bucket == "" {
			return fmt.Errorf("EXPORT_S3_BUCKET is not configured")
		}
		publisher := export.NewS3Publisher(rt.logger,
			rt.cfg.ExportS3Endpoint, rt.cfg.ExportS3Region,
			rt.cfg.ExportS3AccessKey, rt.cfg.ExportS3SecretKey,
			rt.cfg.ExportS3Bucket)
		if err := publisher.Publish(ctx, doc, s3Key); err != nil {
			return err
		}
		fmt.Printf("export document published to s3://%s/%s\n", rt.cfg.ExportS3Bucket, s3Key)
	}

	return nil
}
