// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads OPS credentials and embedding keys from a directory
// of plain-text files. The filename is the key and the trimmed file
// contents are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/patent-rank/pkg/types"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets/"

// Recognized key files.
const (
	KeyClientID        = "epo-client-id"
	KeyClientSecret    = "epo-client-secret"
	KeyEmbeddingAPIKey = "embedding-api-key"
)

// Store holds loaded secret values by key.
type Store map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty Store. Unreadable or empty files are skipped; unreadable
// ones are logged at warn level.
func Load(dir string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("key", name), zap.Error(err))
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			s[name] = v
		}
	}
	return s, nil
}

// Keys returns the loaded key names in sorted order.
func (s Store) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Credentials returns the OPS credentials in s, filling only the fields
// that base leaves empty. Explicit flag or config values win.
func (s Store) Credentials(base types.Credentials) types.Credentials {
	if base.ClientID == "" {
		base.ClientID = s[KeyClientID]
	}
	if base.ClientSecret == "" {
		base.ClientSecret = s[KeyClientSecret]
	}
	return base
}

// Default returns fallback when set, or the value stored under key.
func (s Store) Default(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return s[key]
}
