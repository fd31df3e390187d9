// Package version carries build metadata set through -ldflags.
package version

// Version is the release version; overridden at build time.
var Version = "0.1.0-dev"

// Commit is the git revision the binary was built from.
var Commit = ""

// BuildDate is when the binary was built (RFC 3339).
var BuildDate = ""
