package main

import "github.com/meigma/arh/cmd"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// main starts the arh cli.
func main() {
	cmd.Run(version, commit, date)
}
