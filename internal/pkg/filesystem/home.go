package filesystem

import (
	"errors"
	"os"
	"os/user"
	"strconv"
	"strings"
)

// InvokingUser is the human behind a sudo invocation.
type InvokingUser struct {
	UID      uint32
	GID      uint32
	Username string
	HomeDir  string
	// Groups are the supplementary group ids, kept so that group-based
	// access such as the docker socket still works after dropping root.
	Groups []uint32
}

// LookupInvokingUser reads SUDO_UID/SUDO_GID/SUDO_USER. It returns false when
// the process was not started through sudo.
func LookupInvokingUser() (InvokingUser, bool) {
	return lookupInvokingUser(os.Getenv, user.LookupId)
}

func lookupInvokingUser(getenv func(string) string, lookupID func(string) (*user.User, error)) (InvokingUser, bool) {
	uidRaw := strings.TrimSpace(getenv("SUDO_UID"))
	gidRaw := strings.TrimSpace(getenv("SUDO_GID"))
	if uidRaw == "" || gidRaw == "" {
		return InvokingUser{}, false
	}
	uid, err := strconv.ParseUint(uidRaw, 10, 32)
	if err != nil {
		return InvokingUser{}, false
	}
	gid, err := strconv.ParseUint(gidRaw, 10, 32)
	if err != nil {
		return InvokingUser{}, false
	}

	u := InvokingUser{UID: uint32(uid), GID: uint32(gid), Username: strings.TrimSpace(getenv("SUDO_USER"))}
	if account, err := lookupID(uidRaw); err == nil {
		u.HomeDir = account.HomeDir
		if u.Username == "" {
			u.Username = account.Username
		}
		if ids, err := account.GroupIds(); err == nil {
			for _, id := range ids {
				if g, err := strconv.ParseUint(id, 10, 32); err == nil {
					u.Groups = append(u.Groups, uint32(g))
				}
			}
		}
	}
	return u, true
}

// EffectiveHomeDir returns the invoking user's home under sudo, else $HOME.
// Trash and logs always belong to the human user, not root.
func EffectiveHomeDir() (string, error) {
	if u, ok := LookupInvokingUser(); ok && u.HomeDir != "" {
		return u.HomeDir, nil
	}
	if home := strings.TrimSpace(os.Getenv("HOME")); home != "" {
		return home, nil
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home, nil
	}
	return "", errors.New("could not determine the home directory (HOME is not set)")
}

// UserHomeDir returns the effective home directory, or "." when it cannot
// be determined.
func UserHomeDir() string {
	if home, err := EffectiveHomeDir(); err == nil {
		return home
	}
	return "."
}
