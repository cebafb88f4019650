// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/cad-bridge/internal/compiler"
	"github.com/pdiddy/cad-bridge/internal/onshape"
	"github.com/pdiddy/cad-bridge/internal/secrets"
	"github.com/pdiddy/cad-bridge/pkg/types"
)

const envPrefix = "CAD_BRIDGE"

// Viper keys for the credentials. They are never written to config files
// by cad-bridge but may come from the environment.
const (
	keyAccessKey = "onshape.access_key"
	keySecretKey = "onshape.secret_key"
)

// configureViper sets defaults and environment bindings on v.
func configureViper(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", onshape.DefaultBaseURL)
	v.SetDefault("api.viewer_url", "https://cad.onshape.com")
	v.SetDefault("api.timeout", 60*time.Second)
	v.SetDefault("api.user_agent", "cad-bridge/"+version)

	v.SetDefault("compiler.backend", string(types.BackendNative))
	v.SetDefault("compiler.binary", "openscad")
	v.SetDefault("compiler.image", "openscad/openscad:latest")
	v.SetDefault("compiler.timeout", compiler.DefaultTimeout)
	v.SetDefault("compiler.temp_dir", "")
	v.SetDefault("compiler.format", string(types.FormatSTL))

	v.SetDefault("document.name_prefix", "AI Model")
	v.SetDefault("document.public", false)
	v.SetDefault("document.new_part_studio", false)

	v.SetDefault("ledger.path", "")
	v.SetDefault("server.addr", ":8000")

	// The unprefixed ONSHAPE_* names are accepted too.
	_ = v.BindEnv("api.base_url", envPrefix+"_API_BASE_URL", "ONSHAPE_API_URL")
	_ = v.BindEnv(keyAccessKey, envPrefix+"_ONSHAPE_ACCESS_KEY", "ONSHAPE_ACCESS_KEY")
	_ = v.BindEnv(keySecretKey, envPrefix+"_ONSHAPE_SECRET_KEY", "ONSHAPE_SECRET_KEY")
}

// loadConfig builds the immutable runtime configuration from v.
func loadConfig(v *viper.Viper) (types.Config, error) {
	format, err := types.ParseMeshFormat(v.GetString("compiler.format"))
	if err != nil {
		return types.Config{}, err
	}
	backend := types.CompilerBackend(strings.ToLower(v.GetString("compiler.backend")))
	switch backend {
	case types.BackendNative, types.BackendContainer:
	default:
		return types.Config{}, fmt.Errorf("compiler.backend: unknown backend %q (want %s or %s)",
			backend, types.BackendNative, types.BackendContainer)
	}

	cfg := types.Config{
		API: types.APIConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("api.timeout"),
				UserAgent: v.GetString("api.user_agent"),
			},
			BaseURL:   v.GetString("api.base_url"),
			ViewerURL: v.GetString("api.viewer_url"),
		},
		Compiler: types.CompilerConfig{
			Backend: backend,
			Binary:  v.GetString("compiler.binary"),
			Image:   v.GetString("compiler.image"),
			Timeout: v.GetDuration("compiler.timeout"),
			TempDir: v.GetString("compiler.temp_dir"),
			Format:  format,
		},
		Document: types.DocumentConfig{
			NamePrefix:    v.GetString("document.name_prefix"),
			Public:        v.GetBool("document.public"),
			NewPartStudio: v.GetBool("document.new_part_studio"),
		},
		Ledger: types.LedgerConfig{Path: v.GetString("ledger.path")},
		Server: types.ServerConfig{Addr: v.GetString("server.addr")},
	}
	if cfg.API.Timeout <= 0 {
		return types.Config{}, fmt.Errorf("api.timeout must be positive, got %s", cfg.API.Timeout)
	}
	if cfg.Compiler.Timeout <= 0 {
		return types.Config{}, fmt.Errorf("compiler.timeout must be positive, got %s", cfg.Compiler.Timeout)
	}
	return cfg, nil
}

// loadCredentials resolves the API key pair from .secrets/ and the
// environment. Missing keys are fatal for commands that call the API.
func loadCredentials(v *viper.Viper, loaded map[string]string) (secrets.Credentials, error) {
	return secrets.Resolve(loaded, map[string]string{
		secrets.KeyAccess: v.GetString(keyAccessKey),
		secrets.KeySecret: v.GetString(keySecretKey),
	})
}
