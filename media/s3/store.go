package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"foodgram/config"
	"foodgram/media"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

// ErrIncompleteS3Config is returned when the S3 configuration is incomplete
var ErrIncompleteS3Config = errors.New("incomplete S3 configuration")

// S3Store implements the media.Store interface using an s3-backed storage
type S3Store struct {
	S3Client *s3.Client
	Timeout  time.Duration
	Bucket   string
}

// New creates a new s3-based image store. Static credentials are used when
// both key id and access key are configured, otherwise the default AWS
// credential chain applies.
func New(cfg config.S3Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.Region) == "" ||
		strings.TrimSpace(cfg.Bucket) == "" ||
		strings.TrimSpace(cfg.Timeout) == "" {
		return nil, fmt.Errorf("%w", ErrIncompleteS3Config)
	}

	timeoutDuration, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid S3 timeout value: %w", err)
	}

	var credentialsProvider aws.CredentialsProvider
	if strings.TrimSpace(cfg.KeyID) != "" && strings.TrimSpace(cfg.AccessKey) != "" {
		credentialsProvider = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.KeyID, cfg.AccessKey, ""),
		)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), timeoutDuration)
		defer cancel()

		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load default AWS config: %w", err)
		}
		credentialsProvider = awsCfg.Credentials
	}

	options := s3.Options{
		UsePathStyle: true,
		Region:       cfg.Region,
		Credentials:  credentialsProvider,
	}
	if strings.TrimSpace(cfg.Endpoint) != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &S3Store{
		S3Client: s3.New(options),
		Timeout:  timeoutDuration,
		Bucket:   cfg.Bucket,
	}, nil
}

// StoreImage uploads the image under its content hash and returns the key
func (r *S3Store) StoreImage(
	ctx context.Context,
	content []byte,
	ext string,
) (string, error) {
	key := media.ImageKey(content, ext)

	uploader := manager.NewUploader(r.S3Client)

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	result, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(media.ContentType(key)),
	})
	if err != nil {
		var mu manager.MultiUploadFailure
		if errors.As(err, &mu) {
			log.Error().
				Msg(fmt.Sprintf("multi-upload failure (upload_id: %s): %v", mu.UploadID(), mu))

			return "", fmt.Errorf(
				"multi-upload failure (upload_id: %s): %w",
				mu.UploadID(),
				mu,
			)
		}

		log.Error().Err(err).Msg("upload failure")

		return "", fmt.Errorf("upload failure: %w", err)
	}
	log.Info().
		Str("location", result.Location).
		Msg("successfully uploaded image to s3 bucket")

	return key, nil
}

// GetImage retrieves an image by key
func (r *S3Store) GetImage(ctx context.Context, key string) ([]byte, error) {
	if err := media.ValidateKey(key); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	object, err := r.S3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, media.ErrImageNotFound
		}

		return nil, fmt.Errorf("failed to get image from S3: %w", err)
	}

	if object.Body == nil {
		return []byte{}, nil
	}
	defer func() {
		if cerr := object.Body.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("failed to close S3 object body")
		}
	}()

	content, err := io.ReadAll(object.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image content: %w", err)
	}

	return content, nil
}

// DeleteImage deletes an image by key
func (r *S3Store) DeleteImage(ctx context.Context, key string) error {
	if err := media.ValidateKey(key); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	// DeleteObject succeeds for missing keys, so check first
	_, err := r.S3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return media.ErrImageNotFound
		}

		return fmt.Errorf("failed to stat image in S3: %w", err)
	}

	_, err = r.S3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image from S3: %w", err)
	}

	return nil
}

func isNotFound(err error) bool {
	var notFoundErr *types.NotFound
	var noSuchKeyErr *types.NoSuchKey

	return errors.As(err, &notFoundErr) || errors.As(err, &noSuchKeyErr)
}
