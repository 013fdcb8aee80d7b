package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/cowriter/vox2midi/errs"
)

// S3Store keeps exports in an S3 bucket under <userID>/<filename> keys.
type S3Store struct {
	bucket     string
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
}

func NewS3Store(bucket, region string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &S3Store{
		bucket:     bucket,
		uploader:   s3manager.NewUploader(sess),
		downloader: s3manager.NewDownloader(sess),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, userID, filename string, data []byte) (string, error) {
	if err := validateKey(userID, filename); err != nil {
		return "", err
	}
	key := userID + "/" + filename
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentTypeFor(filename)),
	})
	if err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

func (s *S3Store) Get(ctx context.Context, userID, filename string) ([]byte, error) {
	if err := validateKey(userID, filename); err != nil {
		return nil, err
	}
	key := userID + "/" + filename
	buf := aws.NewWriteAtBuffer(nil)
	_, err := s.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("download export: %w", err)
	}
	return buf.Bytes(), nil
}
