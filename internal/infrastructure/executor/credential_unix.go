//go:build unix

package executor

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/doeshing/macdiet-go/internal/pkg/filesystem"
)

// applyCredential makes c run as u. It only applies when we are root, since
// an unprivileged process cannot switch users anyway.
func applyCredential(c *exec.Cmd, u filesystem.InvokingUser) bool {
	if unix.Geteuid() != 0 {
		return false
	}
	c.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{Uid: u.UID, Gid: u.GID, Groups: u.Groups},
	}
	return true
}
