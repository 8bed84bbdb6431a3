package fsstorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/s3blob"

	"github.com/anemonelabs/anemone-cloud/pkg/config"
	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
)

// BlobStorageService implements the object storage gateway over a gocloud
// bucket (S3 in production, local filesystem for development).
type BlobStorageService struct {
	bucket   *blob.Bucket
	localDir string
	logger   *logrus.Entry
}

type BlobStorageBuilder struct {
	Logger *logrus.Entry
	Config config.BlobStorageConfig
}

func NewBlobStorageService(builder BlobStorageBuilder) (services.ObjectStorageService, error) {
	switch builder.Config.Provider {
	case config.AWSS3:
		awsCfg, err := config.GetAwsSdkConfig(builder.Config.AWSSDKConfig)
		if err != nil {
			return nil, err
		}

		clientV2 := s3v2.NewFromConfig(*awsCfg)
		bucket, err := s3blob.OpenBucketV2(context.Background(), clientV2, builder.Config.BucketName, nil)
		if err != nil {
			return nil, err
		}

		return &BlobStorageService{
			bucket: bucket,
			logger: builder.Logger,
		}, nil
	case config.LocalFilesystem:
		if err := os.MkdirAll(builder.Config.StorageDirectory, os.ModePerm); err != nil {
			return nil, err
		}

		uri := fmt.Sprintf("file://%s?no_tmp_dir=1", builder.Config.StorageDirectory)
		bucket, err := blob.OpenBucket(context.Background(), uri)
		if err != nil {
			return nil, err
		}

		return &BlobStorageService{
			bucket:   bucket,
			localDir: builder.Config.StorageDirectory,
			logger:   builder.Logger,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported blob storage provider '%s'", builder.Config.Provider)
	}
}

func (svc *BlobStorageService) Put(ctx context.Context, key string, data []byte, contentType string) error {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	writer, err := svc.bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: contentType,
	})
	if err != nil {
		return err
	}

	if _, err = writer.Write(data); err != nil {
		writer.Close()
		return err
	}

	if err = writer.Close(); err != nil {
		return err
	}

	lFunc.Debugf("stored blob '%s' (%d bytes)", key, len(data))
	return nil
}

func (svc *BlobStorageService) Get(ctx context.Context, key string) ([]byte, error) {
	reader, err := svc.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func (svc *BlobStorageService) Delete(ctx context.Context, key string) error {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	if err := svc.bucket.Delete(ctx, key); err != nil {
		return err
	}

	lFunc.Debugf("deleted blob '%s'", key)
	return nil
}

func (svc *BlobStorageService) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	// The filesystem bucket has no URL signer. A plain file URL is good
	// enough for local development.
	if svc.localDir != "" {
		return fmt.Sprintf("file://%s/%s", svc.localDir, key), nil
	}

	return svc.bucket.SignedURL(ctx, key, &blob.SignedURLOptions{
		Expiry: ttl,
	})
}
