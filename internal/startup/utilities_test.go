package startup

import (
	"os"
	"testing"
)

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		setEnv       bool
		defaultValue bool
		want         bool
	}{
		{name: "unset uses default true", setEnv: false, defaultValue: true, want: true},
		{name: "unset uses default false", setEnv: false, defaultValue: false, want: false},
		{name: "true", envValue: "true", setEnv: true, defaultValue: false, want: true},
		{name: "false", envValue: "false", setEnv: true, defaultValue: true, want: false},
		{name: "1 parses as true", envValue: "1", setEnv: true, defaultValue: false, want: true},
		{name: "0 parses as false", envValue: "0", setEnv: true, defaultValue: true, want: false},
		{name: "invalid falls back to default", envValue: "not-a-bool", setEnv: true, defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "TEST_BOOL_VAR"
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
				t.Cleanup(func() { os.Unsetenv(key) })
			}

			got := getEnvBool(key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildInfoStruct(t *testing.T) {
	info := BuildInfo{
		Version:   "1.2.3",
		Commit:    "abc123",
		BuildTime: "2026-01-01T00:00:00Z",
		GoVersion: "go1.23",
		OS:        "linux",
		Arch:      "amd64",
	}

	if info.Version != "1.2.3" {
		t.Errorf("Version = %s, want 1.2.3", info.Version)
	}
	if info.OS != "linux" {
		t.Errorf("OS = %s, want linux", info.OS)
	}
}
