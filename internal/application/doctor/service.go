package doctor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	appconfig "github.com/doeshing/macdiet-go/internal/application/config"
	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/infrastructure/security"
	"github.com/doeshing/macdiet-go/internal/pkg/filesystem"
	"github.com/doeshing/macdiet-go/internal/ports"
)

// Service runs environment diagnostics for fix apply.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Home           string
	// AuditErrors are the sink failures seen while wiring the container.
	AuditErrors []string

	LookPath     func(string) (string, error)
	Stat         func(string) (os.FileInfo, error)
	InvokingUser func() (filesystem.InvokingUser, bool)
}

// Run executes checks and returns a report. The error is set only when the
// configuration cannot be used at all.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded %s (fix.default_risk_max=%s)", cfg.Path, cfg.Fix.DefaultRiskMax)))

	checks = append(checks, s.homeCheck())
	checks = append(checks, s.trashCheck())
	checks = append(checks, s.auditCheck(cfg))
	checks = append(checks, s.toolChecks()...)

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) homeCheck() domain.HealthCheck {
	if !filepath.IsAbs(s.Home) {
		return fail("Home directory", fmt.Sprintf("not absolute: %q", s.Home))
	}
	lookup := s.InvokingUser
	if lookup == nil {
		lookup = filesystem.LookupInvokingUser
	}
	if u, found := lookup(); found {
		return warn("Home directory", fmt.Sprintf("%s (running via sudo for %s; commands drop to uid %d)", s.Home, u.Username, u.UID))
	}
	return ok("Home directory", s.Home)
}

func (s *Service) trashCheck() domain.HealthCheck {
	trash := filepath.Join(s.Home, domain.TrashDirName)
	info, err := s.stat(trash)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return warn("Trash", fmt.Sprintf("%s missing (created on first apply)", trash))
	case err != nil:
		return fail("Trash", err.Error())
	case !info.IsDir():
		return fail("Trash", fmt.Sprintf("%s is not a directory", trash))
	}
	return ok("Trash", trash)
}

func (s *Service) auditCheck(cfg domain.Config) domain.HealthCheck {
	if !cfg.IsAuditEnabled() {
		return warn("Audit log", "disabled (audit.enabled=false)")
	}
	if len(s.AuditErrors) > 0 {
		return warn("Audit log", s.AuditErrors[0])
	}
	return ok("Audit log", fmt.Sprintf("%s, %s", cfg.AuditJSONLPath(s.Home), cfg.HistoryDBPath(s.Home)))
}

// toolChecks reports which allowlisted commands are installed.
func (s *Service) toolChecks() []domain.HealthCheck {
	seen := map[string]bool{}
	var tools []string
	for _, e := range security.Entries() {
		if !seen[e.Cmd] {
			seen[e.Cmd] = true
			tools = append(tools, e.Cmd)
		}
	}
	sort.Strings(tools)

	lookPath := s.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	var checks []domain.HealthCheck
	for _, tool := range tools {
		name := "Tool " + tool
		if path, err := lookPath(tool); err == nil {
			checks = append(checks, ok(name, path))
		} else {
			checks = append(checks, warn(name, "not found on PATH; related actions will fail to launch"))
		}
	}
	return checks
}

func (s *Service) stat(path string) (os.FileInfo, error) {
	if s.Stat != nil {
		return s.Stat(path)
	}
	return os.Stat(path)
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
