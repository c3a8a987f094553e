// Package deps reports the availability of the external tools the conversion
// pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// LookPath resolves a binary on PATH. Tests override it to simulate
// missing tools.
var LookPath = exec.LookPath

// Requirement defines an external tool the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of one requirement.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// Requirements lists every tool a conversion worker may invoke.
func Requirements() []Requirement {
	return []Requirement{
		{Name: "unsquashfs", Command: "unsquashfs", Description: "SquashFS extractor for AppImage contents"},
		{Name: "dpkg-deb", Command: "dpkg-deb", Description: "Native Debian package builder"},
		{Name: "rpmbuild", Command: "rpmbuild", Description: "Native RPM package builder"},
		{Name: "fpm", Command: "fpm", Description: "Cross-architecture package builder fallback"},
		{Name: "alien", Command: "alien", Description: "Legacy deb-to-rpm converter", Optional: true},
	}
}

// Check evaluates the provided requirements against PATH.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{Requirement: req}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Available reports whether a single binary resolves on PATH.
func Available(command string) bool {
	if strings.TrimSpace(command) == "" {
		return false
	}
	_, err := LookPath(command)
	return err == nil
}
