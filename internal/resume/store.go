// Package resume stores uploaded resume files in an S3-compatible bucket and
// hands back opaque object keys. The workflow engine only ever sees the key;
// file bytes are never inspected.
package resume

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrNotPDF rejects uploads that fail the PDF-only content policy. The check
// covers the file extension and the declared content type.
var ErrNotPDF = fmt.Errorf("resume must be a PDF file")

// Store uploads resumes to a single bucket.
type Store struct {
	client *s3.Client
	bucket string
}

// NewStore builds a Store against an R2/S3 endpoint using static credentials.
func NewStore(ctx context.Context, accountID, accessKey, secretKey, bucket string) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID))
	})

	return &Store{client: client, bucket: bucket}, nil
}

// Upload stores one resume and returns its opaque object key.
func (s *Store) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if err := checkPDF(filename, contentType); err != nil {
		return "", err
	}

	key := "resumes/" + uuid.NewString() + ".pdf"
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

func checkPDF(filename, contentType string) error {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return ErrNotPDF
	}
	if contentType != "" && contentType != "application/pdf" {
		return ErrNotPDF
	}
	return nil
}
