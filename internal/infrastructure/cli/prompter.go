package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/ports"
)

// MsgCancelled is printed when an answer does not match its token.
const MsgCancelled = "Cancelled."

// Prompter implements ConfirmationPrompter using stdin/stdout.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter constructs a prompter referencing stdio.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Enabled indicates the prompter is interactive.
func (p *Prompter) Enabled() bool {
	return true
}

// Confirm asks every step of contract in order and stops at the first answer
// that is not exactly the expected token.
func (p *Prompter) Confirm(contract domain.ConfirmationContract, subject string) (bool, error) {
	if subject != "" {
		fmt.Fprintf(p.out, "\n%s\n", subject)
	}
	for i, step := range contract.Steps() {
		switch step.Stage {
		case domain.ConfirmStageFinal:
			fmt.Fprintf(p.out, "Final confirmation: type '%s' to proceed: ", step.Token)
		default:
			fmt.Fprintf(p.out, "Type '%s' to continue (anything else cancels): ", step.Token)
		}
		line, err := p.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(p.out)
				fmt.Fprintln(p.out, MsgCancelled)
				return false, nil
			}
			return false, err
		}
		if !contract.Accepts(i, strings.TrimRight(line, "\r\n")) {
			fmt.Fprintln(p.out, MsgCancelled)
			return false, nil
		}
	}
	return true, nil
}

var _ ports.ConfirmationPrompter = (*Prompter)(nil)
