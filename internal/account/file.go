package account

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// fileEntry is one configured account's stand-in for a real OAuth2 grant.
type fileEntry struct {
	// Token is the access token handed to the upstream on success. Empty
	// together with neither flag set below means "account exists but has
	// no usable token", reported as StatusTokenUnavailable.
	Token string `yaml:"token"`
	// CredentialError simulates the provider discovering its own stored
	// credentials for this account are no longer valid.
	CredentialError bool `yaml:"credential_error"`
	// TokenError simulates a transient failure minting a token.
	TokenError bool `yaml:"token_error"`
}

type fileDocument struct {
	Accounts map[string]fileEntry `yaml:"accounts"`
}

// FileProvider is a reference Provider backed by a static YAML file,
// standing in for the real OAuth2 account system. It is not meant for
// production use; a real deployment swaps in a Provider backed by the
// actual account system.
type FileProvider struct {
	mu      sync.RWMutex
	entries map[string]fileEntry
}

// LoadFileProvider reads and parses the accounts file at path.
func LoadFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("account: read %s: %w", path, err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("account: parse %s: %w", path, err)
	}

	return &FileProvider{entries: doc.Accounts}, nil
}

func (p *FileProvider) Find(ctx context.Context, username string) (Account, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.entries[username]; !ok {
		return Account{}, false
	}
	return Account{Username: username}, true
}

func (p *FileProvider) Token(ctx context.Context, acct Account) (string, Status) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.entries[acct.Username]
	if !ok {
		return "", StatusTokenUnavailable
	}
	if entry.CredentialError {
		return "", StatusCredentialRejected
	}
	if entry.TokenError || entry.Token == "" {
		return "", StatusTokenUnavailable
	}
	return entry.Token, StatusOK
}
