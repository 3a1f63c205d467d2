package config

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// SecretSource reads a secret value by name.
type SecretSource interface {
	Secret(ctx context.Context, name string) (string, error)
}

type gcpSecrets struct {
	client    *secretmanager.Client
	projectID string
}

// NewGCPSecrets reads the latest version of secrets from GCP Secret Manager.
func NewGCPSecrets(client *secretmanager.Client, projectID string) SecretSource {
	return &gcpSecrets{client: client, projectID: projectID}
}

func (s *gcpSecrets) Secret(ctx context.Context, name string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return string(resp.Payload.Data), nil
}

// NeedsSecrets reports whether ResolveSecrets has anything to fetch.
func (c Config) NeedsSecrets() bool {
	return (c.FTP.Password == "" && c.FTP.PasswordSecret != "") ||
		(c.DB.Password == "" && c.DB.PasswordSecret != "")
}

// ResolveSecrets fills empty passwords from their named secrets.
func (c *Config) ResolveSecrets(ctx context.Context, secrets SecretSource) error {
	if c.FTP.Password == "" && c.FTP.PasswordSecret != "" {
		v, err := secrets.Secret(ctx, c.FTP.PasswordSecret)
		if err != nil {
			return fmt.Errorf("failed to resolve ftp password: %w", err)
		}
		c.FTP.Password = v
	}
	if c.DB.Password == "" && c.DB.PasswordSecret != "" {
		v, err := secrets.Secret(ctx, c.DB.PasswordSecret)
		if err != nil {
			return fmt.Errorf("failed to resolve db password: %w", err)
		}
		c.DB.Password = v
	}
	return nil
}
