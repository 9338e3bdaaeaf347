//go:build windows

package driver

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindRuntime looks for a capture tool binary in bin/<tool>/windows/x64 next
// to the executable or the working directory.
func FindRuntime(runtime string) (string, error) {
	var lookup []string

	exePath, err := os.Executable()
	if err != nil {
		return "", NewRuntimeError("failed to get executable path", err)
	}
	lookup = append(lookup, filepath.Dir(exePath))

	wd, err := os.Getwd()
	if err != nil {
		return "", NewRuntimeError("failed to get current working directory", err)
	}
	lookup = append(lookup, wd)

	for _, dir := range lookup {
		matches, err := filepath.Glob(filepath.Join(dir, "bin", "*", "windows", "x64", fmt.Sprintf("%s.exe", runtime)))
		if err != nil || len(matches) == 0 {
			continue // continue to next directory
		}

		if _, err = os.Stat(matches[0]); err != nil {
			continue
		}

		return matches[0], nil
	}

	return "", NewRuntimeError(fmt.Sprintf("failed to find binary '%s'", runtime), nil)
}
