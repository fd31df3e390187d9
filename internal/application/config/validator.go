package config

import (
	"fmt"
	"strings"

	"github.com/doeshing/macdiet-go/internal/domain"
)

// Validate ensures config values are usable.
func Validate(cfg domain.Config) error {
	if err := validateUI(cfg.UI); err != nil {
		return err
	}
	if err := validateScan(cfg.Scan); err != nil {
		return err
	}
	if err := validateFix(cfg.Fix); err != nil {
		return err
	}
	return validateAudit(cfg.Audit)
}

func validateUI(ui domain.UISettings) error {
	if ui.MaxTableRows <= 0 {
		return fmt.Errorf("ui.max_table_rows must be > 0")
	}
	return nil
}

func validateScan(scan domain.ScanSettings) error {
	switch strings.ToLower(scan.DefaultScope) {
	case "dev", "deep":
	default:
		return fmt.Errorf("scan.default_scope must be dev|deep, got %s", scan.DefaultScope)
	}
	return nil
}

func validateFix(fix domain.FixSettings) error {
	if !fix.DefaultRiskMax.Valid() {
		return fmt.Errorf("fix.default_risk_max invalid: %d", fix.DefaultRiskMax)
	}
	if fix.CommandTimeout <= 0 {
		return fmt.Errorf("fix.command_timeout must be > 0")
	}
	return nil
}

func validateAudit(audit domain.AuditSettings) error {
	if audit.RotateMaxBytes < 0 {
		return fmt.Errorf("audit.rotate_max_bytes must be >= 0")
	}
	return nil
}
