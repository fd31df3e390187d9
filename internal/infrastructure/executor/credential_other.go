//go:build !unix

package executor

import (
	"os/exec"

	"github.com/doeshing/macdiet-go/internal/pkg/filesystem"
)

func applyCredential(*exec.Cmd, filesystem.InvokingUser) bool {
	return false
}
