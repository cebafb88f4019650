// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves the API credentials cad-bridge needs at startup.
// Credentials come from a directory of plain-text files (the filename is the
// key, the trimmed contents are the value) and may be overridden by
// environment-derived values.
//
// Recognized key files: onshape-access-key, onshape-secret-key.
package secrets

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	KeyAccess = "onshape-access-key"
	KeySecret = "onshape-secret-key"
)

// ErrMissingCredentials is returned by Resolve when a required key has no value.
var ErrMissingCredentials = errors.New("missing API credentials")

// Credentials is the access/secret key pair for the remote document API.
type Credentials struct {
	AccessKey string
	SecretKey string
}

// BasicAuth returns the value of the Authorization header for c.
func (c Credentials) BasicAuth() string {
	raw := c.AccessKey + ":" + c.SecretKey
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// Load reads every regular, non-hidden file in dir into a key/value map.
// A missing directory yields an empty map. Files that cannot be read are
// reported on w and skipped.
func Load(dir string, w io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	found := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			found[name] = v
		}
	}
	return found, nil
}

// Resolve builds Credentials from loaded file secrets, letting any non-empty
// override take precedence. It fails with ErrMissingCredentials naming every
// key that is still empty.
func Resolve(loaded, overrides map[string]string) (Credentials, error) {
	pick := func(key string) string {
		if v := strings.TrimSpace(overrides[key]); v != "" {
			return v
		}
		return loaded[key]
	}

	creds := Credentials{AccessKey: pick(KeyAccess), SecretKey: pick(KeySecret)}

	var missing []string
	if creds.AccessKey == "" {
		missing = append(missing, KeyAccess)
	}
	if creds.SecretKey == "" {
		missing = append(missing, KeySecret)
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return creds, nil
}
