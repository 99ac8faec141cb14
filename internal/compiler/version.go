package compiler

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
)

// DetectToolchainVersion reports the version of the configured Go binary
// (e.g. "1.24.1"), or an empty string if the binary is missing or the output
// is unparseable. Best-effort only, never an error.
func (c *Compiler) DetectToolchainVersion(ctx context.Context) string {
	goPath, err := exec.LookPath(c.goBinary)
	if err != nil {
		return ""
	}

	// #nosec G204 -- goPath is from exec.LookPath, not user-controlled
	cmd := exec.CommandContext(ctx, goPath, "version")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}

	return parseToolchainVersion(string(output))
}

// parseToolchainVersion extracts the numeric version from `go version`
// output such as "go version go1.24.1 linux/amd64".
func parseToolchainVersion(output string) string {
	versionRegex := regexp.MustCompile(`go(\d+\.\d+(?:\.\d+)?)`)
	if matches := versionRegex.FindStringSubmatch(output); len(matches) >= 2 {
		return matches[1]
	}
	return strings.TrimSpace(output)
}
