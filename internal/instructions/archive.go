// Package instructions archives the branch-visit instructions PDF the vendor
// generates for each session, so support staff can re-send it.
package instructions

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"f2f-cri/internal/platform/config"
)

const contentType = "application/pdf"

var ErrEmptyDocument = errors.New("instructions document is empty")

// ObjectPutter is the part of the S3 API the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Archive struct {
	api    ObjectPutter
	bucket string
	prefix string
}

// New builds an S3 client from cfg. Static credentials are used when both
// keys are set; otherwise the default AWS chain applies. A custom endpoint
// (MinIO, LocalStack) usually also needs path-style addressing.
func New(ctx context.Context, cfg config.S3) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("S3_BUCKET is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewWithClient(client, cfg.Bucket), nil
}

func NewWithClient(api ObjectPutter, bucket string) *Archive {
	return &Archive{api: api, bucket: bucket, prefix: "instructions/"}
}

// Key is the object key for a session's instructions.
func (a *Archive) Key(sessionID string) string {
	return a.prefix + sessionID + ".pdf"
}

// Store uploads pdf under the session's key, overwriting any earlier copy.
func (a *Archive) Store(ctx context.Context, sessionID string, pdf []byte) error {
	if len(pdf) == 0 {
		return ErrEmptyDocument
	}
	sum := sha256.Sum256(pdf)
	checksum := base64.StdEncoding.EncodeToString(sum[:])

	_, err := a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:            aws.String(a.bucket),
		Key:               aws.String(a.Key(sessionID)),
		Body:              bytes.NewReader(pdf),
		ContentLength:     aws.Int64(int64(len(pdf))),
		ContentType:       aws.String(contentType),
		ChecksumAlgorithm: s3types.ChecksumAlgorithmSha256,
		ChecksumSHA256:    aws.String(checksum),
	})
	if err != nil {
		return fmt.Errorf("put instructions %s: %w", sessionID, err)
	}
	return nil
}
