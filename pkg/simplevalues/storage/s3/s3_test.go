package s3

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigner(t *testing.T, prefix string) *Signer {
	t.Helper()
	s, err := New(Config{
		Region:          "us-east-1",
		Bucket:          "media",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
		PresignDuration: 600,
		KeyPrefix:       prefix,
	})
	require.NoError(t, err)
	return s
}

func TestSigner_Configuration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("DefaultPresignDuration", func(t *testing.T) {
		s, err := New(Config{Bucket: "media", AccessKeyID: "k", SecretAccessKey: "s"})
		require.NoError(t, err)
		assert.Equal(t, time.Hour, s.presignDuration)
	})
}

func TestSigner_ObjectKey(t *testing.T) {
	assert.Equal(t, "media/a.jpg", testSigner(t, "").ObjectKey("/media/a.jpg"))
	assert.Equal(t, "site/media/a.jpg", testSigner(t, "/site/").ObjectKey("media/a.jpg"))
}

func TestSigner_PresignGet(t *testing.T) {
	s := testSigner(t, "site")

	raw, err := s.PresignGet(context.Background(), "/2024/hero.jpg")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/media/site/2024/hero.jpg", u.Path)

	q := u.Query()
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.Equal(t, "600", q.Get("X-Amz-Expires"))
	assert.Equal(t, "inline", q.Get("response-content-disposition"))
}
