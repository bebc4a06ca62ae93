// cmd/toolhost/main.go
package main

import (
	cmd "github.com/mwiater/toolhost/internal/cli"
)

// Set by the linker at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = cmd.SetVersionInfo
	executeCmd     = cmd.Execute
)

// main injects build information and delegates to the cobra root command.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
