package history

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const defaultObject = "scenarioHistory.json"

type GCSOptions struct {
	Bucket          string
	Object          string
	CredentialsFile string
}

// GCSSlot keeps the history list in a single bucket object so several
// machines can share one history.
type GCSSlot struct {
	client *storage.Client
	bucket string
	object string
}

func NewGCSSlot(ctx context.Context, opts GCSOptions) (*GCSSlot, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	if opts.Object == "" {
		opts.Object = defaultObject
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSSlot{
		client: client,
		bucket: opts.Bucket,
		object: opts.Object,
	}, nil
}

func (s *GCSSlot) Close() error {
	return s.client.Close()
}

func (s *GCSSlot) Name() string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, s.object)
}

func (s *GCSSlot) Read(ctx context.Context) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.Name(), err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Name(), err)
	}
	return data, nil
}

func (s *GCSSlot) Write(ctx context.Context, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to upload %s: %w", s.Name(), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload %s: %w", s.Name(), err)
	}
	return nil
}
