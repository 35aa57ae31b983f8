package util

import "os"

// IsRunningInDocker reports whether the process runs inside a container
// started by docker or podman.
func IsRunningInDocker() bool {
	for _, marker := range []string{"/.dockerenv", "/run/.containerenv"} {
		if _, err := os.Stat(marker); err == nil {
			return true
		}
	}

	return false
}
