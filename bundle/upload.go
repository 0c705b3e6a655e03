package bundle

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Paretofilm/amplify-pipeline-mcp/errors"
)

// zipContentType is the content type for deployment archives.
const zipContentType = "application/zip"

// S3API is the S3 surface the uploader needs. *s3.Client satisfies it.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores bundles in an S3 bucket, for deployments that stage
// archives rather than pushing them straight through a pre-signed URL.
type S3Uploader struct {
	api    S3API
	bucket string
}

// NewS3Uploader creates an uploader targeting the given bucket.
func NewS3Uploader(api S3API, bucket string) *S3Uploader {
	return &S3Uploader{api: api, bucket: bucket}
}

// Upload stores the bundle archive under key and returns the object's
// S3 URI.
func (u *S3Uploader) Upload(ctx context.Context, key string, b *Bundle) (string, error) {
	_, err := u.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(b.Archive),
		ContentType: aws.String(zipContentType),
	})
	if err != nil {
		return "", errors.WrapWithContext(err, errors.CodeControlPlane,
			"could not upload bundle", map[string]any{
				"bucket": u.bucket,
				"key":    key,
			})
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}

// PresignedUploader pushes bundles to the pre-signed zipUploadUrl that
// CreateDeployment hands out.
type PresignedUploader struct {
	Client *http.Client
}

// Upload PUTs the bundle archive to the pre-signed URL.
func (u *PresignedUploader) Upload(ctx context.Context, url string, b *Bundle) error {
	client := u.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(b.Archive))
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "could not build upload request")
	}
	req.Header.Set("Content-Type", zipContentType)
	req.ContentLength = int64(len(b.Archive))

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CodeControlPlane, "bundle upload failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.CodeControlPlane,
			"bundle upload returned status %d", resp.StatusCode)
	}
	return nil
}
