package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/compat"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/config"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/logging"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/navigation"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/orchestrator"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/requirement"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/resolver"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/session"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// buildEngine wires the orchestrator from cfg. The returned func closes
// everything that was opened.
func buildEngine(cfg *config.Config, log *logging.Logger) (*orchestrator.Orchestrator, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	tables, err := cfg.RequirementTables()
	if err != nil {
		return nil, cleanup, err
	}
	pairs, err := cfg.SplitPairList()
	if err != nil {
		return nil, cleanup, err
	}

	if dir := filepath.Dir(cfg.Store.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, cleanup, fmt.Errorf("create store dir: %w", err)
		}
	}
	store, err := state.NewStore(cfg.Store.Path)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, store.Close)

	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		rs, err := session.NewRedisStore(log, cfg.Session.RedisAddr, cfg.GetSessionTTL())
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, rs.Close)
		sessions = rs
	default:
		sessions = session.NewMemoryStore()
	}

	var res resolver.Resolver = resolver.Literal{}
	if cfg.Resolver.Addr != "" {
		client, err := resolver.NewClient(cfg.Resolver.Addr, cfg.GetResolverTimeout())
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, client.Close)
		res = client
	}

	dispatcher := navigation.NewDispatcher(cfg.MinDispatchAttributes)
	dispatcher.RegisterAll(navigation.RoutesFrom(tables), navigation.SummaryBuilder{})

	orch, err := orchestrator.New(orchestrator.Deps{
		Resolver:   res,
		Validator:  requirement.NewValidator(tables, log),
		Checker:    compat.NewChecker(pairs, nil),
		Dispatcher: dispatcher,
		Sessions:   sessions,
		Store:      store,
		Log:        log,
		MaxHistory: cfg.MaxHistoryItems,
	})
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	log.Info("engine ready",
		"store", cfg.Store.Path, "sessions", cfg.Session.Backend,
		"resolver", cfg.Resolver.Addr, "routes", len(dispatcher.Routes()))
	return orch, cleanup, nil
}
