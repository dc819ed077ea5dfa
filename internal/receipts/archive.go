package receipts

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archive stores rendered receipts
type Archive interface {
	Put(ctx context.Context, key string, data []byte) error
}

// S3Archive keeps receipts in an S3-compatible bucket (AWS or R2)
type S3Archive struct {
	client *s3.Client
	bucket string
}

// NewS3Archive builds an archive client. An empty endpoint uses AWS itself.
func NewS3Archive(ctx context.Context, bucket, endpoint, region, accessKey, secretKey string) (*S3Archive, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to configure S3 client: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Archive{client: client, bucket: bucket}, nil
}

// Key is where a receipt for userID lives in the bucket
func Key(userID, number string) string {
	return path.Join("receipts", userID, number+".pdf")
}

func (a *S3Archive) Put(ctx context.Context, key string, data []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload receipt %s: %w", key, err)
	}
	log.Printf("[Receipts] archived %s (%d bytes)", key, len(data))
	return nil
}
