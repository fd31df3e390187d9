package config

import (
	"strings"
	"testing"
	"time"

	"github.com/doeshing/macdiet-go/internal/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		UI:   domain.UISettings{MaxTableRows: 20},
		Scan: domain.ScanSettings{DefaultScope: "dev"},
		Fix:  domain.FixSettings{DefaultRiskMax: domain.RiskR1, CommandTimeout: time.Minute},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{"valid", func(*domain.Config) {}, ""},
		{"deep scope", func(c *domain.Config) { c.Scan.DefaultScope = "DEEP" }, ""},
		{"rows", func(c *domain.Config) { c.UI.MaxTableRows = 0 }, "ui.max_table_rows"},
		{"scope", func(c *domain.Config) { c.Scan.DefaultScope = "everything" }, "scan.default_scope"},
		{"risk", func(c *domain.Config) { c.Fix.DefaultRiskMax = domain.RiskLevel(7) }, "fix.default_risk_max"},
		{"timeout", func(c *domain.Config) { c.Fix.CommandTimeout = 0 }, "fix.command_timeout"},
		{"rotate", func(c *domain.Config) { c.Audit.RotateMaxBytes = -1 }, "audit.rotate_max_bytes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := Validate(cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tc.wantErr, err)
			}
		})
	}
}
