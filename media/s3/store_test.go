package s3

import (
	"errors"
	"testing"

	"foodgram/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBucketRegionTimeout(t *testing.T) {
	_, err := New(config.S3Config{Region: "eu-central-1", Timeout: "5s"})
	assert.True(t, errors.Is(err, ErrIncompleteS3Config))

	_, err = New(config.S3Config{Bucket: "images", Region: "eu-central-1", Timeout: "soon"})
	assert.Error(t, err)
}

func TestNewWithStaticCredentials(t *testing.T) {
	store, err := New(config.S3Config{
		Endpoint:  "http://localhost:9000",
		Region:    "us-east-1",
		Bucket:    "images",
		KeyID:     "minio",
		AccessKey: "minio-secret",
		Timeout:   "5s",
	})
	require.NoError(t, err)

	assert.Equal(t, "images", store.Bucket)
	assert.Equal(t, "5s", store.Timeout.String())
	assert.NotNil(t, store.S3Client)
}
