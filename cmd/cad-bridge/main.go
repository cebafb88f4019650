// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cad-bridge CLI.
//
// cad-bridge compiles OpenSCAD source into a mesh and imports it into a new
// Onshape document. The create subcommand runs one conversion; serve exposes
// the same conversion over HTTP; history lists outcomes from the local
// ledger.
//
// Implements: docs/ARCHITECTURE § Pipeline Interface, § Configuration (CLI surface).
// See docs/ARCHITECTURE § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cad-bridge/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

const secretsDir = ".secrets/"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the cad-bridge CLI.
var rootCmd = &cobra.Command{
	Use:   "cad-bridge",
	Short: "Turn OpenSCAD source into Onshape documents",
	Long: `cad-bridge compiles OpenSCAD source with the openscad compiler and
imports the resulting mesh into a new Onshape document.

Credentials come from .secrets/onshape-access-key and
.secrets/onshape-secret-key, or from ONSHAPE_ACCESS_KEY and
ONSHAPE_SECRET_KEY (a .env file in the working directory is read first).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secretsDir, os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./cad-bridge.yaml or ~/.config/cad-bridge/cad-bridge.yaml)")
}

func initConfig() {
	// A missing .env is normal; values already in the environment win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cad-bridge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cad-bridge"))
		}
	}

	configureViper(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
