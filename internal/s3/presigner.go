package s3

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "skill-marketplace/internal/config"
)

const uploadURLExpiry = 15 * time.Minute

type FilePresigner struct {
	S3PresignClient *s3.PresignClient
	BucketName      string
	Endpoint        string
}

func NewFilePresigner(ctx context.Context, cfg appconfig.S3Config) (*FilePresigner, error) {
	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)

	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &FilePresigner{
		S3PresignClient: s3.NewPresignClient(s3Client),
		BucketName:      cfg.Bucket,
		Endpoint:        cfg.Endpoint,
	}, nil
}

// PresignUpload returns a PUT URL for objectKey valid for 15 minutes.
func (p *FilePresigner) PresignUpload(ctx context.Context, objectKey, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(p.BucketName),
		Key:    aws.String(objectKey),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	request, err := p.S3PresignClient.PresignPutObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = uploadURLExpiry
	})

	if err != nil {
		return "", err
	}

	return request.URL, nil
}
