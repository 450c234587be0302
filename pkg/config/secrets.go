package config

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

type secretAccessor interface {
	Access(ctx context.Context, name string) (string, error)
	Close() error
}

type secretClient struct {
	client *secretmanager.Client
}

func newSecretClient(ctx context.Context) (secretAccessor, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &secretClient{client: client}, nil
}

func (c *secretClient) Access(ctx context.Context, name string) (string, error) {
	resp, err := c.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return strings.TrimSpace(string(resp.GetPayload().GetData())), nil
}

func (c *secretClient) Close() error {
	return c.client.Close()
}

// resolveSecrets fills the Gemini API key from Secret Manager when the
// environment did not provide one.
func resolveSecrets(ctx context.Context, cfg *Config, open func(context.Context) (secretAccessor, error)) error {
	if cfg.GeminiAPIKey != "" || cfg.Gemini.APIKeySecret == "" {
		return nil
	}

	name, err := secretVersionName(cfg.GCPProject, cfg.Gemini.APIKeySecret)
	if err != nil {
		return err
	}

	client, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	key, err := client.Access(ctx, name)
	if err != nil {
		return err
	}
	cfg.GeminiAPIKey = key
	return nil
}

// secretVersionName accepts a bare secret id or a full resource name.
func secretVersionName(project, secret string) (string, error) {
	if strings.HasPrefix(secret, "projects/") {
		if !strings.Contains(secret, "/versions/") {
			secret += "/versions/latest"
		}
		return secret, nil
	}
	if project == "" {
		return "", fmt.Errorf("GOOGLE_CLOUD_PROJECT is required to read secret %q", secret)
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, secret), nil
}
