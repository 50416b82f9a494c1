// Copyright 2025 MindSweep AI Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main runs the MindSweep backend: an HTTP service that turns a
// free-text message into structured emotional-clarity text via a hosted
// model and keeps a history of exchanges.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/your-org/mindsweep/internal/completion"
	"github.com/your-org/mindsweep/internal/config"
	"github.com/your-org/mindsweep/internal/health"
	"github.com/your-org/mindsweep/internal/history"
	"github.com/your-org/mindsweep/internal/prompt"
	"github.com/your-org/mindsweep/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "1.0.0"

func main() {
	var configPath string
	var port string
	var watchConfig bool

	rootCmd := &cobra.Command{
		Use:     "mindsweep-server",
		Short:   "MindSweep AI backend service",
		Version: version,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(configPath, port, watchConfig)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (defaults to ./configs/config.yaml)")
	rootCmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides config)")
	rootCmd.Flags().BoolVar(&watchConfig, "watch-config", false, "reload model selection when the config file changes")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, port string, watchConfig bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if port != "" {
		cfg.Server.Port = port
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("project", cfg.Project.ID),
		zap.String("region", cfg.Project.Region),
		zap.String("primary_model", cfg.Models.Primary),
		zap.String("fallback_model", cfg.Models.Fallback),
		zap.String("history_storage", cfg.History.StorageType),
	)

	store, err := history.NewStorage(history.Config{
		StorageType: history.StorageType(cfg.History.StorageType),
		DBPath:      cfg.History.DBPath,
		RedisURL:    cfg.History.RedisURL,
		MaxRecords:  cfg.History.MaxRecords,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize history storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	completer, err := completion.NewClient(completion.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Endpoint:    cfg.OpenAI.Endpoint,
		Primary:     cfg.Models.Primary,
		Fallback:    cfg.Models.Fallback,
		MaxTokens:   cfg.Models.MaxTokens,
		Temperature: float32(cfg.Models.Temperature),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize completion client: %w", err)
	}

	if watchConfig && configPath != "" {
		err := config.WatchConfig(configPath,
			func(updated *config.Config) {
				completer.SetModels(updated.Models.Primary, updated.Models.Fallback)
			},
			func(err error) {
				logger.Error("Config reload failed, keeping previous configuration", zap.Error(err))
			})
		if err != nil {
			logger.Warn("Config watching disabled", zap.Error(err))
		}
	}

	healthManager := health.NewManager("mindsweep", version, logger)
	healthManager.AddChecker("history_store", health.DatabaseChecker("history", store.Ping))

	picker := prompt.NewPicker(time.Now().UnixNano())

	srv := server.New(cfg, completer, store, healthManager, picker, logger)
	return srv.Run()
}

// newLogger builds the zap logger per the logging configuration.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	if cfg.Format == "text" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
