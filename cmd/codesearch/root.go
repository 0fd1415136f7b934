package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atomicobject/codesearch/pkg/config"
	"github.com/atomicobject/codesearch/pkg/mcpserver"
)

var (
	basePath   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:     "codesearch",
	Short:   "codesearch - per-workspace code search and navigation service",
	Version: "v0.1.0",
	Long:    "codesearch - index a workspace, search its contents, and keep the index current as files change.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "codesearch: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&basePath, "base-path", "", "override the service's base directory (default: config.DefaultBaseDir)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file to merge onto the defaults")
}

// loadConfig builds this invocation's Config from --config (if given) and
// --base-path (which always wins over whatever the config file says), the
// same override-order the teacher's vault/--vault flag takes over its
// preferences file.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if basePath != "" {
		cfg.BasePath = basePath
	}
	return cfg, nil
}

// newService builds an mcpserver.Service from the current invocation's
// flags. Callers are responsible for calling Close when done.
func newService() (*mcpserver.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return mcpserver.New(cfg)
}
