package annotationinfra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/saiteja-tally/taggo/pkg/annotation"
	"github.com/saiteja-tally/taggo/pkg/errx"
	"github.com/saiteja-tally/taggo/pkg/workflow"
)

// Buckets maps each workflow status to the S3 bucket holding its payloads.
// Statuses absent from the map fall back to Default.
type Buckets struct {
	Default   string
	ForStatus map[workflow.Status]string
}

// Bucket resolves the bucket for a status.
func (b Buckets) Bucket(st workflow.Status) string {
	if name, ok := b.ForStatus[st]; ok {
		return name
	}
	return b.Default
}

// S3BlobStore is the S3 implementation of annotation.BlobStore, with one
// bucket per workflow status.
type S3BlobStore struct {
	client  *s3.Client
	buckets Buckets
}

// NewS3BlobStore creates the store.
func NewS3BlobStore(client *s3.Client, buckets Buckets) annotation.BlobStore {
	return &S3BlobStore{client: client, buckets: buckets}
}

func (s *S3BlobStore) GetJSON(ctx context.Context, st workflow.Status, key string) (*annotation.Document, error) {
	body, err := s.GetObject(ctx, st, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var doc annotation.Document
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		return nil, errx.Wrap(err, "failed to decode annotation payload", errx.TypeInternal).
			WithDetail("key", key)
	}
	return &doc, nil
}

func (s *S3BlobStore) PutJSON(ctx context.Context, st workflow.Status, key string, doc *annotation.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return errx.Wrap(err, "failed to encode annotation payload", errx.TypeInternal).
			WithDetail("key", key)
	}
	return s.PutObject(ctx, st, key, bytes.NewReader(payload), "application/json")
}

func (s *S3BlobStore) GetObject(ctx context.Context, st workflow.Status, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.buckets.Bucket(st)),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, annotation.RecordNotFound(key)
		}
		return nil, annotation.StorageFailed(err).WithDetail("key", key)
	}
	return out.Body, nil
}

func (s *S3BlobStore) PutObject(ctx context.Context, st workflow.Status, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.buckets.Bucket(st)),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return annotation.StorageFailed(err).WithDetail("key", key)
	}
	return nil
}

func (s *S3BlobStore) Delete(ctx context.Context, st workflow.Status, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.buckets.Bucket(st)),
		Key:    aws.String(key),
	})
	if err != nil {
		return annotation.StorageFailed(err).WithDetail("key", key)
	}
	return nil
}
