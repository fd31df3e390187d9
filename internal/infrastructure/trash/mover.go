package trash

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/infrastructure/security"
	"github.com/doeshing/macdiet-go/internal/ports"
)

// Mover moves validated paths into ~/.Trash.
type Mover struct {
	rename func(oldpath, newpath string) error
}

// NewMover returns a Mover that uses os.Rename.
func NewMover() *Mover {
	return &Mover{rename: os.Rename}
}

// Apply validates the whole batch first, then moves each TRASH_MOVE path in
// order. Per-path failures are collected in the outcome; only failing to
// prepare ~/.Trash aborts the batch.
func (m *Mover) Apply(actions []domain.ActionPlan, home string) (domain.ApplyOutcome, error) {
	var outcome domain.ApplyOutcome
	if err := security.Validate(actions, home); err != nil {
		return outcome, err
	}

	var paths []string
	for _, action := range actions {
		if p, ok := action.TrashPaths(); ok {
			paths = append(paths, p...)
		}
	}
	if len(paths) == 0 {
		return outcome, nil
	}

	trashDir := filepath.Join(home, domain.TrashDirName)
	if err := os.MkdirAll(trashDir, domain.DirectoryPermissions); err != nil {
		return outcome, fmt.Errorf("failed to create %s: %w", trashDir, err)
	}

	for _, p := range paths {
		src, err := security.ValidateTrashTarget(p, home)
		if err != nil {
			outcome.Errors = append(outcome.Errors, domain.PathFailure{Path: p, Error: err.Error()})
			continue
		}
		if _, err := os.Lstat(src); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				outcome.SkippedMissing = append(outcome.SkippedMissing, src)
				continue
			}
			outcome.Errors = append(outcome.Errors, domain.PathFailure{Path: src, Error: err.Error()})
			continue
		}
		dest, err := m.moveToTrash(src, trashDir)
		if err != nil {
			outcome.Errors = append(outcome.Errors, domain.PathFailure{Path: src, Error: err.Error()})
			continue
		}
		outcome.Moved = append(outcome.Moved, domain.MovedPath{From: src, To: dest})
	}
	return outcome, nil
}

func (m *Mover) moveToTrash(src, trashDir string) (string, error) {
	dest, err := uniqueDestination(trashDir, filepath.Base(src))
	if err != nil {
		return "", err
	}
	rename := m.rename
	if rename == nil {
		rename = os.Rename
	}
	if err := rename(src, dest); err != nil {
		return "", fmt.Errorf("could not move %s to %s: %w", src, dest, err)
	}
	return dest, nil
}

// uniqueDestination returns trashDir/name, or the first free
// name.macdiet-N when that is taken.
func uniqueDestination(trashDir, name string) (string, error) {
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("path has no file name to use in the trash: %q", name)
	}
	candidate := filepath.Join(trashDir, name)
	if !exists(candidate) {
		return candidate, nil
	}
	for i := 1; i <= domain.MaxTrashSuffixAttempts; i++ {
		candidate = filepath.Join(trashDir, name+domain.TrashSuffix+strconv.Itoa(i))
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not find a free name for %s in %s after %d attempts", name, trashDir, domain.MaxTrashSuffixAttempts)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

var _ ports.TrashMover = (*Mover)(nil)
