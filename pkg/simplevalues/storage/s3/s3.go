// Package s3 signs time-limited URLs for media files stored in an
// S3-compatible bucket. It backs the storage-delegated URL strategy.
package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyendpoints "github.com/aws/smithy-go/endpoints"
)

// Config options for the S3 signer
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)
	PresignDuration int    // Duration in seconds for presigned URLs (default: 3600)
	KeyPrefix       string // Optional prefix prepended to media file paths
}

// Signer creates presigned GET URLs for media files
type Signer struct {
	presignClient   *s3.PresignClient
	bucket          string
	keyPrefix       string
	presignDuration time.Duration
}

// New creates a new S3 signer
func New(config Config) (*Signer, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}

	if config.PresignDuration == 0 {
		config.PresignDuration = 3600 // 1 hour default
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		// Use provided credentials
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)

	// Custom endpoint for S3-compatible services (MinIO, etc.)
	if config.Endpoint != "" {
		if _, err := url.Parse(config.Endpoint); err != nil {
			return nil, fmt.Errorf("invalid endpoint: %w", err)
		}
		s3Options = append(s3Options, func(o *s3.Options) {
			if config.UsePathStyle {
				o.EndpointResolverV2 = &pathStyleResolver{region: config.Region, endpoint: config.Endpoint}
				return
			}
			o.BaseEndpoint = aws.String(config.Endpoint)
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	return &Signer{
		presignClient:   s3.NewPresignClient(client),
		bucket:          config.Bucket,
		keyPrefix:       strings.Trim(config.KeyPrefix, "/"),
		presignDuration: time.Duration(config.PresignDuration) * time.Second,
	}, nil
}

// ObjectKey maps a media file path to its object key
func (s *Signer) ObjectKey(filePath string) string {
	key := strings.TrimPrefix(filePath, "/")
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + "/" + key
}

// PresignGet returns a presigned URL for displaying a media file inline
func (s *Signer) PresignGet(ctx context.Context, filePath string) (string, error) {
	input := &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(s.ObjectKey(filePath)),
		ResponseContentDisposition: aws.String("inline"),
	}

	result, err := s.presignClient.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignDuration
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned media URL: %w", err)
	}

	return result.URL, nil
}

// pathStyleResolver addresses buckets as the first path segment of a custom
// endpoint in the configured region
type pathStyleResolver struct {
	region   string
	endpoint string
}

func (r *pathStyleResolver) ResolveEndpoint(ctx context.Context, params s3.EndpointParameters) (smithyendpoints.Endpoint, error) {
	if params.Region != nil && *params.Region == r.region && params.Bucket != nil {
		base, err := url.Parse(r.endpoint)
		if err != nil {
			return smithyendpoints.Endpoint{}, err
		}
		return smithyendpoints.Endpoint{URI: *base.JoinPath(*params.Bucket)}, nil
	}
	return s3.NewDefaultEndpointResolverV2().ResolveEndpoint(ctx, params)
}
