package outcome

import "strings"

// Markers recognized in Homebrew output.
const (
	brewFixPermissionsMarker = "Fix your permissions on:"
	brewRootGuardMarker      = "as root is extremely dangerous"
	brewApply2FilesMarker    = "Permission denied @ apply2files"
	permissionDeniedMarker   = "Permission denied"
	notPermittedMarker       = "Operation not permitted"
)

// PermissionFixPaths extracts the paths Homebrew lists after
// "Fix your permissions on:" with trailing slashes removed. Only stderr is
// consulted.
func PermissionFixPaths(stderr string) []string {
	var paths []string
	collecting := false
	for _, line := range splitLines(stderr) {
		if !collecting {
			if strings.Contains(line, brewFixPermissionsMarker) {
				collecting = true
			}
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			break
		}
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") || strings.HasPrefix(trimmed, "/") {
			if p := strings.TrimRight(trimmed, "/"); p != "" {
				trimmed = p
			}
			paths = append(paths, trimmed)
			continue
		}
		break
	}
	return paths
}

func brewHasHardError(out, errOut string) bool {
	if strings.Contains(out, "Error:") || strings.Contains(errOut, "Error:") {
		return true
	}
	for _, s := range []string{out, errOut} {
		for _, line := range splitLines(s) {
			if strings.HasPrefix(strings.TrimLeft(line, " \t"), "fatal:") {
				return true
			}
		}
	}
	return false
}

// firstErrorLine returns the first line starting with "Error:", stderr first.
func firstErrorLine(errOut, out string) string {
	for _, s := range []string{errOut, out} {
		for _, line := range splitLines(s) {
			if trimmed := strings.TrimLeft(line, " \t"); strings.HasPrefix(trimmed, "Error:") {
				return strings.TrimSpace(trimmed)
			}
		}
	}
	return ""
}

func brewRunningAsRoot(errOut string) bool {
	return strings.Contains(strings.ToLower(errOut), brewRootGuardMarker)
}

func brewPermissionIssue(errOut string) bool {
	return strings.Contains(errOut, brewFixPermissionsMarker) || strings.Contains(errOut, permissionDeniedMarker)
}

func brewOwnershipFailure(errOut string) bool {
	return strings.Contains(errOut, brewApply2FilesMarker) || strings.Contains(errOut, notPermittedMarker)
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
