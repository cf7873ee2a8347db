package app

import (
	"context"
	"time"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/infrastructure/config"
	"github.com/voidws/xcpilot/internal/infrastructure/executor"
	"github.com/voidws/xcpilot/internal/infrastructure/history"
	"github.com/voidws/xcpilot/internal/infrastructure/persist"
	"github.com/voidws/xcpilot/internal/infrastructure/prefs"
	"github.com/voidws/xcpilot/internal/infrastructure/respcache"
	"github.com/voidws/xcpilot/internal/infrastructure/simcache"
	"github.com/voidws/xcpilot/internal/infrastructure/simctl"
	"github.com/voidws/xcpilot/internal/pkg/logger"
	"github.com/voidws/xcpilot/internal/ports"
	"github.com/voidws/xcpilot/internal/services/doctor"
	"github.com/voidws/xcpilot/internal/services/orchestrate"
	"github.com/voidws/xcpilot/internal/services/resolve"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader
	Logger         ports.Logger

	Executor   *executor.Executor
	Responses  *respcache.Cache
	Prefs      *prefs.Cache
	Simulators *simcache.Cache
	Simctl     *simctl.Source

	Orchestrator  *orchestrate.Service
	Resolver      *resolve.Resolver
	DoctorService *doctor.Service
	HistoryStore  ports.OutcomeStore
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(verbose)

	var stateStore ports.StateStore
	if cfg.Persistence.Enabled {
		stateStore = persist.NewFileStore(cfg.Persistence.StateDir)
	} else {
		stateStore = persist.DisabledStore{}
	}
	settings := persist.NewSettingsStore(cfg.Persistence.StateDir)
	historyStore := history.NewSQLiteStore(cfg.Persistence.HistoryDB)

	patterns, err := executor.LoadPatterns(cfg.Execution.FatalRulesFile)
	if err != nil {
		return nil, err
	}

	exec := executor.New(executor.NewLocalRunner(), cfg.Execution.Shell, log)
	simSource := simctl.NewSource(exec, cfg.Tools.Xcrun, log)

	responses := respcache.New(stateStore, log, respcache.Options{
		MaxEntries: cfg.Cache.MaxResponses,
		MaxAge:     time.Duration(cfg.Cache.ResponseTTLMinutes) * time.Minute,
	})
	projectPrefs := prefs.New(stateStore, settings, historyStore, log, prefs.Options{
		HistoryLimit: cfg.Cache.OutcomeRetention,
	})
	simulators := simcache.New(simSource, stateStore, log, simcache.Options{
		Staleness: time.Duration(cfg.Cache.SimulatorTTLMinutes) * time.Minute,
	})

	resolver := resolve.New(projectPrefs, simulators, log)

	orchestrator := orchestrate.New(exec, responses, projectPrefs, simulators, simSource, resolver, log, orchestrate.Options{
		XcodebuildPath: cfg.Tools.Xcodebuild,
		Timeout:        time.Duration(cfg.Execution.TimeoutSeconds) * time.Second,
		MaxOutputBytes: cfg.Execution.MaxOutputBytes,
		FatalPatterns:  patterns,
	})

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Store:          stateStore,
	}

	return &Container{
		Config:         cfg,
		ConfigProvider: cfgLoader,
		ConfigLoader:   cfgLoader,
		Logger:         log,
		Executor:       exec,
		Responses:      responses,
		Prefs:          projectPrefs,
		Simulators:     simulators,
		Simctl:         simSource,
		Orchestrator:   orchestrator,
		Resolver:       resolver,
		DoctorService:  doctorService,
		HistoryStore:   historyStore,
	}, nil
}

// Close flushes pending cache persists and stops background schedulers.
func (c *Container) Close() {
	if c.Responses != nil {
		c.Responses.Close()
	}
	if c.Prefs != nil {
		c.Prefs.Close()
	}
	if c.Simulators != nil {
		c.Simulators.Close()
	}
}
