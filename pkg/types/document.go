// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the cad-bridge
// pipeline, its collaborators, and the CLI and HTTP surfaces.
package types

import (
	"fmt"
	"strings"
)

// RemoteDocument identifies a document created on the remote CAD service.
// Once created it is never deleted by the pipeline.
type RemoteDocument struct {
	// ID is the opaque document identifier.
	ID string `json:"id" yaml:"id"`

	// DefaultWorkspaceID is the workspace that uploads and imports target.
	DefaultWorkspaceID string `json:"default_workspace_id" yaml:"default_workspace_id"`
}

// BlobReference identifies an uploaded blob element. It is consumed
// immediately by the import step.
type BlobReference struct {
	ID string `json:"id" yaml:"id"`
}

// MeshFormat is a mesh file format understood by both the compiler and the
// remote import endpoint.
type MeshFormat string

const (
	FormatSTL MeshFormat = "STL"
	FormatOBJ MeshFormat = "OBJ"
	Format3MF MeshFormat = "3MF"
)

// Ext returns the file extension, without a dot, that selects this format
// on the compiler command line.
func (f MeshFormat) Ext() string {
	return strings.ToLower(string(f))
}

// ParseMeshFormat validates a format name case-insensitively. An empty
// name selects STL.
func ParseMeshFormat(s string) (MeshFormat, error) {
	switch MeshFormat(strings.ToUpper(strings.TrimSpace(s))) {
	case "", FormatSTL:
		return FormatSTL, nil
	case FormatOBJ:
		return FormatOBJ, nil
	case Format3MF:
		return Format3MF, nil
	}
	return "", fmt.Errorf("unsupported mesh format %q (want STL, OBJ, or 3MF)", s)
}
