package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/okovalenko/mediadrop/internal/common"
	sc "github.com/okovalenko/mediadrop/internal/server/config"
)

// Seams for testing the AWS SDK calls.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// s3API is the subset of *s3.Client the store uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store keeps blobs in an S3-compatible bucket (MinIO in development).
type S3Store struct {
	client        s3API
	presignClient *s3.PresignClient
	bucket        string
}

// NewS3Store builds a store from the server config's S3 settings.
func NewS3Store(ctx context.Context, config *sc.Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.S3RootUser,     // MINIO_ROOT_USER
			config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:        client,
		presignClient: newS3PresignClient(client),
		bucket:        config.S3Bucket,
	}, nil
}

// Save uploads the content under a new stored name.
func (s *S3Store) Save(ctx context.Context, content io.Reader, originalExtension string) (string, error) {
	storedName := NewStoredName(originalExtension)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &storedName,
		Body:   content,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return storedName, nil
}

// Delete removes the object. S3 deletes are idempotent, so the object is
// checked first to keep the not-found contract of the interface.
func (s *S3Store) Delete(ctx context.Context, storedName string) error {
	if err := checkStoredName(storedName); err != nil {
		return err
	}
	exists, err := s.Exists(ctx, storedName)
	if err != nil {
		return err
	}
	if !exists {
		return common.ErrorNotFound
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &storedName,
	}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// Exists reports whether the object is present in the bucket.
func (s *S3Store) Exists(ctx context.Context, storedName string) (bool, error) {
	if err := checkStoredName(storedName); err != nil {
		return false, err
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &storedName,
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("head object: %w", err)
	}
	return true, nil
}

// Open returns the object body for streaming.
func (s *S3Store) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	if err := checkStoredName(storedName); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &storedName,
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	return out.Body, nil
}

// List returns all object keys in the bucket.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	var names []string
	var continuation *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range out.Contents {
			names = append(names, aws.ToString(obj.Key))
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			return names, nil
		}
		continuation = out.NextContinuationToken
	}
}

// PresignGet returns a presigned GET URL for direct playback of the object.
func (s *S3Store) PresignGet(ctx context.Context, storedName string, validity time.Duration) (string, error) {
	if err := checkStoredName(storedName); err != nil {
		return "", err
	}
	req, err := presignGetObject(s.presignClient, ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &storedName,
	}, s3.WithPresignExpires(validity))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
