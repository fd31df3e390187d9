package app

import (
	"context"
	"fmt"

	appconfig "github.com/doeshing/macdiet-go/internal/application/config"
	"github.com/doeshing/macdiet-go/internal/application/doctor"
	"github.com/doeshing/macdiet-go/internal/application/fix"
	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/infrastructure/audit"
	"github.com/doeshing/macdiet-go/internal/infrastructure/config"
	"github.com/doeshing/macdiet-go/internal/infrastructure/executor"
	"github.com/doeshing/macdiet-go/internal/infrastructure/trash"
	"github.com/doeshing/macdiet-go/internal/pkg/filesystem"
	"github.com/doeshing/macdiet-go/internal/pkg/logger"
	"github.com/doeshing/macdiet-go/internal/ports"
	"github.com/doeshing/macdiet-go/internal/version"
)

// Options controls how the container is built.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config        domain.Config
	Home          string
	ConfigLoader  *config.FileLoader
	FixService    *fix.Service
	DoctorService *doctor.Service
	HistoryStore  *audit.SQLiteStore
	AuditSink     ports.AuditSink
	Logger        ports.Logger
	// AuditErrors are sink failures; fix still runs without those sinks.
	AuditErrors []string
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	home, err := filesystem.EffectiveHomeDir()
	if err != nil {
		return nil, err
	}

	cfgLoader := config.NewFileLoader(opts.ConfigPath, home)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, domain.InvalidArgs(err)
	}
	if err := appconfig.Validate(cfg); err != nil {
		return nil, domain.InvalidArgs(fmt.Errorf("config %s: %w", cfg.Path, err))
	}

	log := logger.NewStd(opts.Verbose)
	container := &Container{
		Config:       cfg,
		Home:         home,
		ConfigLoader: cfgLoader,
		Logger:       log,
	}

	var sinks []ports.AuditSink
	logPath := ""
	if cfg.IsAuditEnabled() {
		jsonlPath := cfg.AuditJSONLPath(home)
		if jsonl, err := audit.NewJSONLSink(jsonlPath, cfg.GetAuditRotateBytes()); err != nil {
			log.Warn("audit jsonl sink unavailable", map[string]interface{}{"path": jsonlPath, "error": err.Error()})
			container.AuditErrors = append(container.AuditErrors, err.Error())
		} else {
			logPath = jsonl.Path()
			sinks = append(sinks, jsonl)
		}

		dbPath := cfg.HistoryDBPath(home)
		if store, err := audit.NewSQLiteStore(dbPath); err != nil {
			log.Warn("audit history store unavailable", map[string]interface{}{"path": dbPath, "error": err.Error()})
			container.AuditErrors = append(container.AuditErrors, err.Error())
		} else {
			container.HistoryStore = store
			sinks = append(sinks, store)
		}
	}
	sink := audit.NewMultiSink(sinks...)
	container.AuditSink = sink

	if logPath != "" && cfg.ShouldMaskHome() {
		logPath = audit.MaskHome(logPath, home)
	}

	container.FixService = &fix.Service{
		Mover:   trash.NewMover(),
		Runner:  executor.NewLocalRunner(),
		Audit:   sink,
		Logger:  log,
		Home:    home,
		LogPath: logPath,
		Events: audit.Builder{
			ToolVersion: version.Version,
			Home:        home,
			MaskHome:    cfg.ShouldMaskHome(),
		},
	}

	container.DoctorService = &doctor.Service{
		ConfigProvider: cfgLoader,
		Home:           home,
		AuditErrors:    container.AuditErrors,
	}
	return container, nil
}

// Close releases the audit sinks.
func (c *Container) Close() error {
	if c == nil || c.AuditSink == nil {
		return nil
	}
	return c.AuditSink.Close()
}
