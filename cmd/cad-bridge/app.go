// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/pdiddy/cad-bridge/internal/compiler"
	"github.com/pdiddy/cad-bridge/internal/metrics"
	"github.com/pdiddy/cad-bridge/internal/onshape"
	"github.com/pdiddy/cad-bridge/internal/pipeline"
	"github.com/pdiddy/cad-bridge/pkg/types"
)

// buildPipeline wires the compiler and document client selected by cfg.
// Credentials are checked first so a misconfigured install fails before
// probing for the compiler.
func buildPipeline(ctx context.Context, cfg types.Config, rec metrics.Recorder, log io.Writer) (*pipeline.Pipeline, error) {
	creds, err := loadCredentials(viper.GetViper(), loadedSecrets)
	if err != nil {
		return nil, err
	}

	client, err := onshape.NewClient(cfg.API, creds, nil)
	if err != nil {
		return nil, fmt.Errorf("configuring document client: %w", err)
	}

	comp, err := compiler.New(ctx, cfg.Compiler)
	if err != nil {
		return nil, fmt.Errorf("configuring compiler: %w", err)
	}

	return pipeline.New(comp, client, pipeline.Options{
		ViewerURL:     cfg.API.ViewerURL,
		NamePrefix:    cfg.Document.NamePrefix,
		Public:        cfg.Document.Public,
		NewPartStudio: cfg.Document.NewPartStudio,
		Format:        comp.Format(),
		Recorder:      rec,
		Log:           log,
	}), nil
}
