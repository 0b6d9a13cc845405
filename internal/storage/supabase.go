package storage

import (
	"bytes"
	"context"
	"time"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseStore backs ObjectStore with a Supabase storage bucket.
type SupabaseStore struct {
	client *storage_go.Client
	bucket string
}

func NewSupabaseStore(url, serviceKey, bucket string) *SupabaseStore {
	return &SupabaseStore{
		client: storage_go.NewClient(url, serviceKey, nil),
		bucket: bucket,
	}
}

func (s *SupabaseStore) Store(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_ = ctx // storage-go carries its own transport deadlines
	opts := storage_go.FileOptions{ContentType: &contentType}
	if _, err := s.client.UploadFile(s.bucket, name, bytes.NewReader(data), opts); err != nil {
		return "", err
	}
	return name, nil
}

func (s *SupabaseStore) SignedURL(ctx context.Context, reference string, ttl time.Duration) (string, error) {
	_ = ctx
	resp, err := s.client.CreateSignedUrl(s.bucket, reference, int(ttl.Seconds()))
	if err != nil {
		return "", err
	}
	return resp.SignedURL, nil
}

func (s *SupabaseStore) Download(ctx context.Context, reference string) ([]byte, error) {
	_ = ctx
	return s.client.DownloadFile(s.bucket, reference)
}
