// Package storage abstracts where uploaded documents and generated
// artifacts live. Local disk serves development; Supabase Storage serves
// deployments.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// ArtifactStore reads and writes binary objects addressed by key. PutObject
// returns a URL a client can fetch the object from.
type ArtifactStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// LocalStore keeps objects under a base directory and serves them through
// the /files/ route.
type LocalStore struct {
	basePath string
	baseURL  string
}

func NewLocalStore(basePath, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) PutObject(_ context.Context, key string, data []byte, _ string) (string, error) {
	path := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write object %s: %w", key, err)
	}
	return s.baseURL + "/files/" + key, nil
}

func (s *LocalStore) GetObject(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// SupabaseStore stores objects in a Supabase Storage bucket.
type SupabaseStore struct {
	client *storage_go.Client
	bucket string
}

func NewSupabaseStore(projectURL, serviceKey, bucket string) *SupabaseStore {
	client := storage_go.NewClient(strings.TrimRight(projectURL, "/")+"/storage/v1", serviceKey, nil)
	return &SupabaseStore{client: client, bucket: bucket}
}

func (s *SupabaseStore) PutObject(_ context.Context, key string, data []byte, contentType string) (string, error) {
	upsert := true
	_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return s.client.GetPublicUrl(s.bucket, key).SignedURL, nil
}

func (s *SupabaseStore) GetObject(_ context.Context, key string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download object %s: %w", key, err)
	}
	return data, nil
}
