package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	appconfig "github.com/appsparrow/streakzilla/internal/config"
	"github.com/appsparrow/streakzilla/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PhotoStore keeps progress photos and hands back the reference a check-in stores.
type PhotoStore interface {
	Put(ctx context.Context, upload PhotoUpload) (string, error)
}

type PhotoUpload struct {
	UserID      string
	ChallengeID string
	Day         int
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Store uploads photos to a Cloudflare R2 bucket through its S3 API.
type R2Store struct {
	client     objectPutter
	bucket     string
	cdnBaseURL string
	maxBytes   int64
	now        func() time.Time
}

func NewR2Store(ctx context.Context, cfg appconfig.StorageConfig) (*R2Store, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "failed to load R2 config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	cdn := cfg.CDNBaseURL
	if cdn == "" {
		cdn = endpoint + "/" + cfg.Bucket
	}
	return newR2Store(client, cfg.Bucket, cdn, int64(cfg.MaxPhotoMB)<<20), nil
}

func newR2Store(client objectPutter, bucket, cdnBaseURL string, maxBytes int64) *R2Store {
	return &R2Store{
		client:     client,
		bucket:     bucket,
		cdnBaseURL: strings.TrimRight(cdnBaseURL, "/"),
		maxBytes:   maxBytes,
		now:        time.Now,
	}
}

// ObjectKey is {user}/{challenge}/day-{n}-{unixms}{ext}.
func ObjectKey(userID, challengeID string, day int, ext string, at time.Time) string {
	return fmt.Sprintf("%s/%s/day-%d-%d%s", userID, challengeID, day, at.UnixMilli(), ext)
}

func extension(filename, contentType string) string {
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		return ext
	}
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	default:
		return ".jpg"
	}
}

// Put uploads the photo and returns its public URL.
func (s *R2Store) Put(ctx context.Context, upload PhotoUpload) (string, error) {
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return "", errors.Newf(errors.ErrInvalidArgument, "photo must be an image, got %q", upload.ContentType)
	}
	if s.maxBytes > 0 && upload.Size > s.maxBytes {
		return "", errors.Newf(errors.ErrInvalidArgument, "photo is %d bytes, limit is %d", upload.Size, s.maxBytes)
	}

	key := ObjectKey(upload.UserID, upload.ChallengeID, upload.Day, extension(upload.Filename, upload.ContentType), s.now())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        upload.Body,
		ContentType: aws.String(upload.ContentType),
	})
	if err != nil {
		return "", errors.New(errors.ErrStorage, "failed to upload to R2", err)
	}

	return fmt.Sprintf("%s/%s", s.cdnBaseURL, key), nil
}
