package domain_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/doeshing/macdiet-go/internal/domain"
)

// TestConfig_EffectiveRiskMax tests the flag-over-config precedence
func TestConfig_EffectiveRiskMax(t *testing.T) {
	r2 := domain.RiskR2
	tests := []struct {
		name     string
		config   domain.Config
		override *domain.RiskLevel
		want     domain.RiskLevel
	}{
		{
			name:   "uses configured ceiling",
			config: domain.Config{Fix: domain.FixSettings{DefaultRiskMax: domain.RiskR0}},
			want:   domain.RiskR0,
		},
		{
			name:     "override wins",
			config:   domain.Config{Fix: domain.FixSettings{DefaultRiskMax: domain.RiskR1}},
			override: &r2,
			want:     domain.RiskR2,
		},
		{
			name:   "invalid configured value falls back to R1",
			config: domain.Config{Fix: domain.FixSettings{DefaultRiskMax: domain.RiskLevel(9)}},
			want:   domain.RiskR1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.EffectiveRiskMax(tt.override); got != tt.want {
				t.Fatalf("EffectiveRiskMax() = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestConfig_Defaults tests zero-value fallbacks
func TestConfig_Defaults(t *testing.T) {
	var cfg domain.Config
	if got := cfg.GetCommandTimeout(); got != domain.DefaultCommandTimeout {
		t.Fatalf("GetCommandTimeout() = %v, want %v", got, domain.DefaultCommandTimeout)
	}
	if got := cfg.GetMaxTableRows(); got != domain.DefaultMaxTableRows {
		t.Fatalf("GetMaxTableRows() = %d", got)
	}
	if got := cfg.GetAuditRotateBytes(); got != domain.DefaultAuditRotateBytes {
		t.Fatalf("GetAuditRotateBytes() = %d", got)
	}

	home := "/Users/t"
	if got, want := cfg.AuditJSONLPath(home), filepath.Join(home, ".config/macdiet/logs/audit.jsonl"); got != want {
		t.Fatalf("AuditJSONLPath() = %s, want %s", got, want)
	}
	if got, want := cfg.HistoryDBPath(home), filepath.Join(home, ".config/macdiet/history.db"); got != want {
		t.Fatalf("HistoryDBPath() = %s, want %s", got, want)
	}

	cfg.Fix.CommandTimeout = time.Minute
	cfg.Audit.JSONLPath = "/tmp/a.jsonl"
	if cfg.GetCommandTimeout() != time.Minute || cfg.AuditJSONLPath(home) != "/tmp/a.jsonl" {
		t.Fatalf("explicit values should be kept")
	}
}
