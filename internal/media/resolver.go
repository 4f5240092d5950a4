package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/eventpulse/client/internal/config"
)

// Resolver turns an event's media key into a URL a client can fetch.
type Resolver interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// New picks a resolver for the given media configuration: a plain base-URL
// join when the catalog exposes its media publicly, an S3 presigner when
// only the bucket is reachable, and a pass-through otherwise.
func New(ctx context.Context, cfg config.MediaConfig) (Resolver, error) {
	if strings.TrimSpace(cfg.PublicBaseURL) != "" {
		return &publicResolver{baseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/")}, nil
	}
	if strings.TrimSpace(cfg.Bucket) != "" {
		return newS3Resolver(ctx, cfg)
	}
	return passthroughResolver{}, nil
}

type publicResolver struct {
	baseURL string
}

func (r *publicResolver) Resolve(_ context.Context, key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", fmt.Errorf("media: empty key")
	}
	return fmt.Sprintf("%s/%s", r.baseURL, key), nil
}

type passthroughResolver struct{}

func (passthroughResolver) Resolve(_ context.Context, key string) (string, error) {
	return key, nil
}

// s3Resolver presigns GET requests against the catalog's media bucket.
type s3Resolver struct {
	presigner *s3.PresignClient
	bucket    string
}

func newS3Resolver(ctx context.Context, cfg config.MediaConfig) (*s3Resolver, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &s3Resolver{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
	}, nil
}

func (r *s3Resolver) Resolve(ctx context.Context, key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", fmt.Errorf("media: empty key")
	}

	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("media presign %s: %w", key, err)
	}

	return req.URL, nil
}
