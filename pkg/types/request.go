// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// ConversionRequest is one source-to-document conversion. It is not
// modified after the pipeline accepts it.
type ConversionRequest struct {
	// SourceCode is the OpenSCAD program text. Required.
	SourceCode string `json:"openscad_code" yaml:"openscad_code"`

	// DocumentName is the name of the created document. When empty the
	// pipeline generates a timestamped name.
	DocumentName string `json:"document_name,omitempty" yaml:"document_name,omitempty"`
}

// IsBlank reports whether the request carries no compilable source.
func (r ConversionRequest) IsBlank() bool {
	return strings.TrimSpace(r.SourceCode) == ""
}
