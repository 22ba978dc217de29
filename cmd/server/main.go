// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

// Package main is the entry point for the Pathweaver server.
//
// Pathweaver ranks learning content for a free-text problem description and
// assembles it into a role-labeled learning path. The server initializes
// components in the following order:
//
//  1. Configuration: layered load via Koanf v2 (defaults, YAML, env)
//  2. Logging: zerolog with configurable level and format
//  3. Catalog repository: lazily loaded JSON catalog with hot reload
//  4. Feedback store: BadgerDB-backed per-user engagement signals
//  5. Diagnosis client: circuit-broken upstream root-cause service
//  6. Engine: the relevance, path-building, and flattening pipeline
//  7. Supervisor tree: catalog watcher and HTTP server under suture
//
// The server shuts down gracefully on SIGINT and SIGTERM.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmachnicki/pathweaver/internal/api"
	"github.com/tmachnicki/pathweaver/internal/catalog"
	"github.com/tmachnicki/pathweaver/internal/config"
	"github.com/tmachnicki/pathweaver/internal/diagnosis"
	"github.com/tmachnicki/pathweaver/internal/engine"
	"github.com/tmachnicki/pathweaver/internal/feedback"
	"github.com/tmachnicki/pathweaver/internal/flatten"
	"github.com/tmachnicki/pathweaver/internal/logging"
	"github.com/tmachnicki/pathweaver/internal/match"
	"github.com/tmachnicki/pathweaver/internal/relevance"
	"github.com/tmachnicki/pathweaver/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(cfg.Logging)
	logger := logging.Logger()
	logger.Info().
		Str("addr", cfg.Server.ListenAddr()).
		Str("data_dir", cfg.Catalog.DataDir).
		Msg("starting pathweaver")

	repo := catalog.NewRepository(cfg.Catalog.DataDir, logger)

	var fbStore *feedback.Store
	if cfg.Feedback.Enabled {
		fbStore, err = feedback.Open(cfg.Feedback.Dir, logger)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to open feedback store")
		}
		defer func() {
			if cerr := fbStore.Close(); cerr != nil {
				logger.Warn().Err(cerr).Msg("feedback store close error")
			}
		}()
	}

	diagClient := diagnosis.NewClient(cfg.Diagnosis, logger)

	aggregator := relevance.New(
		cfg.Relevance,
		match.NewLexical(cfg.Lexical),
		match.NewSemantic(cfg.Semantic),
		match.NewCurated(),
		logger,
	)

	eng := engine.New(
		repo,
		aggregator,
		flatten.New(cfg.Flatten),
		diagClient,
		fbStore,
		cfg.Path,
		cfg.Taxonomy,
		logger,
	)

	handler := api.NewHandler(eng, logger)
	server := &http.Server{
		Addr:         cfg.Server.ListenAddr(),
		Handler:      api.NewRouter(handler, cfg.API, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if cfg.Catalog.Watch {
		tree.AddDataService(catalog.NewWatcher(repo, logger))
	}
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout, logger))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := tree.Serve(ctx); err != nil && err != context.Canceled {
		logger.Error().Err(err).Msg("supervisor tree exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("pathweaver stopped")
}
