package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/vault/api"
)

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
}

// NewVaultClient creates a new Vault client from configuration. Returns
// (nil, nil) when Vault integration is disabled.
func NewVaultClient(config VaultConfig) (*VaultClient, error) {
	if !config.Enabled {
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("vault is enabled but no token is configured")
	}
	client.SetToken(token)

	return &VaultClient{client: client, config: config}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}
	return token, nil
}

// ReadSecretValue reads a single string value from a KV secret path of the
// form "mount/path#key" (key defaults to "value").
func (vc *VaultClient) ReadSecretValue(path string) (string, error) {
	secretPath := path
	key := "value"
	if idx := strings.LastIndex(path, "#"); idx >= 0 {
		secretPath = path[:idx]
		key = path[idx+1:]
	}

	secret, err := vc.client.Logical().Read(secretPath)
	if err != nil {
		return "", fmt.Errorf("failed to read vault secret %s: %w", secretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault secret %s not found", secretPath)
	}

	// KV v2 nests the payload under "data"
	data := secret.Data
	if nested, ok := data["data"].(map[string]any); ok {
		data = nested
	}

	value, ok := data[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("vault secret %s has no string value for key %q", secretPath, key)
	}
	return value, nil
}

// resolveVaultSecrets pulls the Gemini API key from Vault when configured.
// Vault takes precedence over config-file and environment values.
func (c *Config) resolveVaultSecrets() error {
	if !c.Vault.Enabled || c.Vault.Secrets.GeminiKey == "" {
		return nil
	}

	client, err := NewVaultClient(c.Vault)
	if err != nil {
		return err
	}

	key, err := client.ReadSecretValue(c.Vault.Secrets.GeminiKey)
	if err != nil {
		return err
	}

	c.AI.APIKey = key
	return nil
}
