package config

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

var envFileNames = []string{".env.local", ".env"}

// loadEnvFiles sets environment variables from .env.local and .env found in
// the working directory and next to the executable. Variables that are
// already set win.
func loadEnvFiles() {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	for _, dir := range dirs {
		for _, name := range envFileNames {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			for key, value := range parseEnvFile(data) {
				if _, set := os.LookupEnv(key); !set {
					_ = os.Setenv(key, value)
				}
			}
		}
	}
}

// parseEnvFile reads KEY=VALUE lines. Blank lines, comments and an optional
// "export " prefix are ignored; surrounding quotes are stripped.
func parseEnvFile(data []byte) map[string]string {
	out := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		out[key] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return out
}
