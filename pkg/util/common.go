// Package util holds helpers shared by the Perfwatch binaries.
package util

import (
	"fmt"
	"io"
)

// BuildInfo is injected at link time with -ldflags "-X main.buildVersion=...".
type BuildInfo struct {
	Version string
	Date    string
	Commit  string
}

// na returns "N/A" if the input string is empty, otherwise it returns the input string.
func na(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// PrintBuildInfo writes the build version, date and commit, one per line.
func PrintBuildInfo(w io.Writer, bi BuildInfo) {
	fmt.Fprintf(w, "Build version: %s\n", na(bi.Version))
	fmt.Fprintf(w, "Build date: %s\n", na(bi.Date))
	fmt.Fprintf(w, "Build commit: %s\n", na(bi.Commit))
}
