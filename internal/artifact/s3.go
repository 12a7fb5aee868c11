package artifact

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"atsresume/internal/errors"
	"atsresume/internal/resume"
	"atsresume/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// PutObjectAPI is the part of the S3 client the saver needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Saver uploads artifacts to an S3 bucket.
type S3Saver struct {
	client   PutObjectAPI
	bucket   string
	prefix   string
	kmsKeyID string
}

// NewS3Saver creates a saver using the default AWS credential chain.
func NewS3Saver(ctx context.Context, region, bucket, prefix, kmsKeyID string) (*S3Saver, error) {
	if bucket == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "s3 bucket is required", nil)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load AWS config", err)
	}

	return NewS3SaverWithClient(s3.NewFromConfig(cfg), bucket, prefix, kmsKeyID), nil
}

// NewS3SaverWithClient wraps an existing client.
func NewS3SaverWithClient(client PutObjectAPI, bucket, prefix, kmsKeyID string) *S3Saver {
	return &S3Saver{
		client:   client,
		bucket:   bucket,
		prefix:   normalizePrefix(prefix),
		kmsKeyID: strings.TrimSpace(kmsKeyID),
	}
}

// Save uploads the PDF and returns its s3:// URI.
func (s *S3Saver) Save(ctx context.Context, a resume.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := applyPrefix(s.prefix, utils.SanitizeFileName(a.Filename))
	contentType := a.ContentType
	if contentType == "" {
		contentType = resume.ContentTypePDF
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(a.Data),
		ContentLength: aws.Int64(int64(len(a.Data))),
		ContentType:   aws.String(contentType),
	}
	if s.kmsKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(s.kmsKeyID)
	} else {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", errors.NewIOError(errors.ErrCodeUploadFailed, "failed to upload PDF to S3", err).
			WithContext("bucket", s.bucket).
			WithContext("key", key)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}
