// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for the remote document API.
type HTTPConfig struct {
	// Timeout bounds each HTTP exchange, including reading the body.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with every request
	// (e.g. "cad-bridge/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// APIConfig locates the remote document API and its viewer.
type APIConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the versioned REST root (e.g. "https://cad.onshape.com/api/v12").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// ViewerURL is the browser root used to build document links
	// (e.g. "https://cad.onshape.com").
	ViewerURL string `json:"viewer_url" yaml:"viewer_url"`
}

// CompilerBackend selects how the geometry compiler is executed.
type CompilerBackend string

const (
	// BackendNative runs the compiler binary found on PATH.
	BackendNative CompilerBackend = "native"
	// BackendContainer runs the compiler image under docker or podman.
	BackendContainer CompilerBackend = "container"
)

// CompilerConfig holds settings for the geometry compiler.
type CompilerConfig struct {
	Backend CompilerBackend `json:"backend" yaml:"backend"`

	// Binary is the compiler executable for the native backend (default "openscad").
	Binary string `json:"binary" yaml:"binary"`

	// Image is the container image for the container backend.
	Image string `json:"image" yaml:"image"`

	// Timeout bounds one compiler run (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// TempDir is the parent directory for per-run scratch directories.
	// Empty means the OS default.
	TempDir string `json:"temp_dir,omitempty" yaml:"temp_dir,omitempty"`

	// Format is the mesh format produced and imported (default STL).
	Format MeshFormat `json:"format" yaml:"format"`
}

// DocumentConfig controls how remote documents are created.
type DocumentConfig struct {
	// NamePrefix starts every generated document name (default "AI Model").
	NamePrefix string `json:"name_prefix" yaml:"name_prefix"`

	// Public marks created documents as public.
	Public bool `json:"public" yaml:"public"`

	// NewPartStudio imports into a new part studio instead of the default one.
	NewPartStudio bool `json:"new_part_studio" yaml:"new_part_studio"`
}

// LedgerConfig holds settings for the local outcome ledger.
type LedgerConfig struct {
	// Path is the SQLite database file. Empty disables the ledger.
	Path string `json:"path" yaml:"path"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address (default ":8000").
	Addr string `json:"addr" yaml:"addr"`
}

// Config groups every setting. It is built once at startup and passed by
// value; nothing mutates it afterwards.
type Config struct {
	API      APIConfig      `json:"api" yaml:"api"`
	Compiler CompilerConfig `json:"compiler" yaml:"compiler"`
	Document DocumentConfig `json:"document" yaml:"document"`
	Ledger   LedgerConfig   `json:"ledger" yaml:"ledger"`
	Server   ServerConfig   `json:"server" yaml:"server"`
}
