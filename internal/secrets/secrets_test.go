// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeyAccess, "  ak_abc123  \n")
				writeFile(t, dir, KeySecret, "sk_xyz789\n")
				return dir
			},
			want: map[string]string{
				KeyAccess: "ak_abc123",
				KeySecret: "sk_xyz789",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files, dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeyAccess, "ak")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{KeyAccess: "ak"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var warn bytes.Buffer
			got, err := Load(tt.setup(t), &warn)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, warn.String())
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := t.TempDir()
	writeFile(t, dir, KeyAccess, "value123")

	badPath := filepath.Join(dir, KeySecret)
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	var warn bytes.Buffer
	got, err := Load(dir, &warn)
	require.NoError(t, err)
	assert.Equal(t, "value123", got[KeyAccess])
	assert.NotContains(t, got, KeySecret)
	assert.Contains(t, warn.String(), KeySecret)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		loaded    map[string]string
		overrides map[string]string
		want      Credentials
		missing   []string
	}{
		{
			name:   "both keys from files",
			loaded: map[string]string{KeyAccess: "a", KeySecret: "s"},
			want:   Credentials{AccessKey: "a", SecretKey: "s"},
		},
		{
			name:      "override wins over file",
			loaded:    map[string]string{KeyAccess: "a", KeySecret: "s"},
			overrides: map[string]string{KeySecret: "env-s"},
			want:      Credentials{AccessKey: "a", SecretKey: "env-s"},
		},
		{
			name:      "blank override falls back to file",
			loaded:    map[string]string{KeyAccess: "a", KeySecret: "s"},
			overrides: map[string]string{KeyAccess: "  "},
			want:      Credentials{AccessKey: "a", SecretKey: "s"},
		},
		{
			name:    "reports every missing key",
			missing: []string{KeyAccess, KeySecret},
		},
		{
			name:      "secret key missing",
			overrides: map[string]string{KeyAccess: "a"},
			missing:   []string{KeySecret},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.loaded, tt.overrides)
			if len(tt.missing) > 0 {
				require.ErrorIs(t, err, ErrMissingCredentials)
				for _, k := range tt.missing {
					assert.Contains(t, err.Error(), k)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCredentialsBasicAuth(t *testing.T) {
	c := Credentials{AccessKey: "access", SecretKey: "secret"}
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("access:secret"))
	assert.Equal(t, want, c.BasicAuth())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
