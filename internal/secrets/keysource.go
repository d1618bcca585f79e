package secrets

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	smpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// KeySource resolves a master key by ID.
type KeySource interface {
	MasterKey(ctx context.Context, keyID string) ([]byte, error)
}

// EnvKeySource reads the base64-encoded key from the environment
// variable named by keyID.
type EnvKeySource struct{}

func (EnvKeySource) MasterKey(_ context.Context, keyID string) ([]byte, error) {
	value := os.Getenv(keyID)
	if value == "" {
		return nil, fmt.Errorf("environment variable %s is not set", keyID)
	}
	key, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("environment variable %s is not valid base64: %w", keyID, err)
	}
	return key, nil
}

// StaticKeySource holds a fixed key. Intended for tests.
type StaticKeySource struct {
	Key []byte
}

func (s StaticKeySource) MasterKey(_ context.Context, _ string) ([]byte, error) {
	return s.Key, nil
}

// SecretManagerKeySource fetches the base64-encoded key from Google
// Secret Manager, where keyID names the secret.
type SecretManagerKeySource struct {
	ProjectID string
}

func (s SecretManagerKeySource) MasterKey(ctx context.Context, keyID string) ([]byte, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	defer client.Close()

	result, err := client.AccessSecretVersion(ctx, &smpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.ProjectID, keyID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access secret %s: %w", keyID, err)
	}

	key, err := base64.StdEncoding.DecodeString(string(result.Payload.Data))
	if err != nil {
		return nil, fmt.Errorf("secret %s is not valid base64: %w", keyID, err)
	}
	return key, nil
}
