// Package version provides version information for the binary.
package version

import "fmt"

// Version is the current version of the application.
// This is set at build time using -ldflags.
var Version = "dev"

// BuildTime is when the binary was built.
// This is set at build time using -ldflags.
var BuildTime = "unknown"

// Name is the program name reported by the CLI and the MCP server.
const Name = "dissociated"

// String returns the formatted version information.
func String() string {
	return fmt.Sprintf("%s version %s (built %s)", Name, Version, BuildTime)
}
