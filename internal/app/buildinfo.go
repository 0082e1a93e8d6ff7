package app

import "fmt"

// Build information populated via -ldflags at build time.
// Defaults are meaningful for local development and tests.
var (
    // BuildVersion is the semantic version of the built binary. It is also
    // the version the MCP server announces.
    BuildVersion = "0.0.0-dev"
    // BuildCommit is the VCS commit SHA associated with the build.
    BuildCommit  = "unknown"
    // BuildDate is the ISO-8601 timestamp of the build.
    BuildDate    = "unknown"
)

// ServerName is the MCP server name and the User-Agent product token for API calls.
const ServerName = "scholarsearch"

// VersionString is the one-line form printed by -version.
func VersionString() string {
    return fmt.Sprintf("%s %s (commit %s, built %s)", ServerName, BuildVersion, BuildCommit, BuildDate)
}

func apiUserAgent() string {
    return ServerName + "/" + BuildVersion + " (+https://github.com/hyperifyio/scholarsearch)"
}
