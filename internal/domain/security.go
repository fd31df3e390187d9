package domain

import (
	"fmt"
	"strings"
)

// RiskLevel orders actions by blast radius. R0 is informational, R1 safely
// reversible, R2 needs judgment, R3 needs elevated privilege or is hard to undo.
type RiskLevel int

const (
	RiskR0 RiskLevel = iota
	RiskR1
	RiskR2
	RiskR3
)

var riskNames = [...]string{"R0", "R1", "R2", "R3"}

// String returns the wire name ("R0".."R3").
func (r RiskLevel) String() string {
	if r < RiskR0 || r > RiskR3 {
		return fmt.Sprintf("R?(%d)", int(r))
	}
	return riskNames[r]
}

// Valid reports whether r is one of the four defined levels.
func (r RiskLevel) Valid() bool {
	return r >= RiskR0 && r <= RiskR3
}

// ParseRiskLevel accepts "R2", "r2" and the ceiling form "<=R2".
func ParseRiskLevel(s string) (RiskLevel, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimSpace(strings.TrimPrefix(v, "<="))
	for i, name := range riskNames {
		if strings.EqualFold(v, name) {
			return RiskLevel(i), nil
		}
	}
	return RiskR0, fmt.Errorf("invalid risk level %q (expected R0|R1|R2|R3)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r RiskLevel) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid risk level %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RiskLevel) UnmarshalText(text []byte) error {
	level, err := ParseRiskLevel(string(text))
	if err != nil {
		return err
	}
	*r = level
	return nil
}

// ConfirmationSpec holds the two words a user must type before an
// allowlisted command runs.
type ConfirmationSpec struct {
	ConfirmToken      string `json:"confirm_token" yaml:"confirm_token"`
	FinalConfirmToken string `json:"final_confirm_token" yaml:"final_confirm_token"`
}

// TrashConfirmation guards every trash-move batch.
var TrashConfirmation = ConfirmationSpec{ConfirmToken: "yes", FinalConfirmToken: "trash"}

// Contract turns the spec into the ordered two-step contract.
func (s ConfirmationSpec) Contract() ConfirmationContract {
	return ConfirmationContract{steps: []ConfirmationStep{
		{Stage: ConfirmStageAction, Token: s.ConfirmToken},
		{Stage: ConfirmStageFinal, Token: s.FinalConfirmToken},
	}}
}

// ConfirmStage names a step of the typed confirmation.
type ConfirmStage string

const (
	ConfirmStageAction ConfirmStage = "action"
	ConfirmStageFinal  ConfirmStage = "final"
)

// ConfirmationStep is one prompt and the exact token it expects.
type ConfirmationStep struct {
	Stage ConfirmStage
	Token string
}

// ConfirmationContract is the stateless typed-confirmation gate. Front ends
// render Steps and hand the answers back to Satisfied; they own no other
// part of the decision.
type ConfirmationContract struct {
	steps []ConfirmationStep
}

// Steps returns the prompts in the order they must be answered.
func (c ConfirmationContract) Steps() []ConfirmationStep {
	out := make([]ConfirmationStep, len(c.steps))
	copy(out, c.steps)
	return out
}

// Accepts reports whether answer satisfies step i.
func (c ConfirmationContract) Accepts(i int, answer string) bool {
	if i < 0 || i >= len(c.steps) {
		return false
	}
	token := c.steps[i].Token
	return token != "" && strings.TrimSpace(answer) == token
}

// Satisfied reports whether answers match every step exactly and in order.
func (c ConfirmationContract) Satisfied(answers []string) bool {
	if len(c.steps) == 0 || len(answers) != len(c.steps) {
		return false
	}
	for i, answer := range answers {
		if !c.Accepts(i, answer) {
			return false
		}
	}
	return true
}
