package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"visitor-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// Archiver uploads run reports to object storage so run history survives
// process restarts.
type Archiver struct {
	client storage.Client
	bucket string
	prefix string
}

// NewArchiver creates an archiver writing into the configured bucket.
func NewArchiver(client storage.Client, cfg storage.Config) *Archiver {
	return &Archiver{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}
}

// Archive uploads the report as <prefix>/<run-id>.json, creating the bucket
// on first use.
func (a *Archiver) Archive(ctx context.Context, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report %s: %w", r.RunID, err)
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", a.bucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("creating bucket %s: %w", a.bucket, err)
		}
	}

	object := path.Join(a.prefix, r.RunID+".json")
	_, err = a.client.PutObject(ctx, a.bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("uploading report %s: %w", object, err)
	}
	return nil
}
