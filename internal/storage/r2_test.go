package storage

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/appsparrow/streakzilla/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	return &s3.PutObjectOutput{}, f.err
}

func TestObjectKey(t *testing.T) {
	at := time.UnixMilli(1704103200123)
	assert.Equal(t, "u1/c1/day-3-1704103200123.jpg", ObjectKey("u1", "c1", 3, ".jpg", at))
}

func TestPut_UploadsAndReturnsCDNURL(t *testing.T) {
	fake := &fakePutter{}
	store := newR2Store(fake, "photos", "https://cdn.example.com/", 1<<20)
	store.now = func() time.Time { return time.UnixMilli(42) }

	url, err := store.Put(context.Background(), PhotoUpload{
		UserID:      "u1",
		ChallengeID: "c1",
		Day:         5,
		Filename:    "Progress.PNG",
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("data"),
	})
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/u1/c1/day-5-42.png", url)
	require.NotNil(t, fake.input)
	assert.Equal(t, "photos", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "u1/c1/day-5-42.png", aws.ToString(fake.input.Key))
	assert.Equal(t, "image/png", aws.ToString(fake.input.ContentType))
}

func TestPut_Rejections(t *testing.T) {
	fake := &fakePutter{}
	store := newR2Store(fake, "photos", "https://cdn.example.com", 10)

	_, err := store.Put(context.Background(), PhotoUpload{ContentType: "application/pdf", Size: 1})
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = store.Put(context.Background(), PhotoUpload{ContentType: "image/jpeg", Size: 11})
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	assert.Nil(t, fake.input)

	fake.err = stderrors.New("network down")
	_, err = store.Put(context.Background(), PhotoUpload{ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("x")})
	assert.Equal(t, errors.ErrStorage, errors.CodeOf(err))
}

func TestExtensionFallsBackToContentType(t *testing.T) {
	assert.Equal(t, ".webp", extension("blob", "image/webp"))
	assert.Equal(t, ".jpg", extension("", "image/jpeg"))
}
