package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// EnvConfigFile names an explicit config file and takes precedence over the
// default location.
const EnvConfigFile = "CONFIG_FILE"

const appDir = "bedrock-relay"

// ConfigPath returns the config file to read for name (e.g. "relay.yaml"):
// $CONFIG_FILE when set, otherwise the default location for this host.
func ConfigPath(name string) string {
	if v := GetEnv(EnvConfigFile, ""); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return ResolveConfigPath(runtime.GOOS, home, env("XDG_CONFIG_HOME"), name)
}

// ResolveConfigPath returns the default location of name. Containers and
// Lambda read /etc/bedrock-relay unless XDG_CONFIG_HOME points elsewhere;
// macOS development machines use Application Support.
func ResolveConfigPath(goos, home, xdgConfigHome, name string) string {
	if goos == "darwin" && home != "" {
		return filepath.Join(home, "Library", "Application Support", appDir, name)
	}
	if xdg := strings.TrimSpace(xdgConfigHome); xdg != "" && filepath.IsAbs(xdg) {
		return filepath.Join(xdg, appDir, name)
	}
	return filepath.Join("/etc", appDir, name)
}

// GetEnv returns the trimmed value of the environment variable k, or d when
// it is unset or blank.
func GetEnv(k, d string) string {
	if v := strings.TrimSpace(env(k)); v != "" {
		return v
	}
	return d
}

var env = os.Getenv
