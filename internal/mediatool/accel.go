package mediatool

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Accel is the selected hardware-acceleration mode, per §4.11.
type Accel string

const (
	AccelCUDA         Accel = "cuda"
	AccelQSV          Accel = "qsv"
	AccelD3D11VA      Accel = "d3d11va"
	AccelVideoToolbox Accel = "videotoolbox"
	AccelCPU          Accel = "cpu"
)

// DetectResult is the outcome of the one-time startup probe.
type DetectResult struct {
	Selected       Accel
	Hwaccels       []string
	NvidiaDevices  int
	DRIRenderNodes int
	OpenCLPresent  bool
}

// detectTimeout bounds the -hwaccels probe call.
const detectTimeout = 5 * time.Second

// Detect probes the external tool for supported accelerators and the
// presence of physical devices, honoring an environment override, per
// §4.11 and the richer /diag/ffmpeg payload in SPEC_FULL.md §4.
func Detect(override string) DetectResult {
	result := DetectResult{Selected: AccelCPU}

	result.Hwaccels = probeHwaccels()
	result.NvidiaDevices = countGlob("/dev/nvidia*")
	result.DRIRenderNodes = countGlob("/dev/dri/renderD*")
	result.OpenCLPresent = probeOpenCL()

	if override != "" && override != "auto" {
		if a := Accel(strings.ToLower(override)); a != "" {
			result.Selected = a
			return result
		}
	}

	switch {
	case contains(result.Hwaccels, "cuda") && result.NvidiaDevices > 0:
		result.Selected = AccelCUDA
	case contains(result.Hwaccels, "qsv") && result.DRIRenderNodes > 0:
		result.Selected = AccelQSV
	case contains(result.Hwaccels, "d3d11va"):
		result.Selected = AccelD3D11VA
	case contains(result.Hwaccels, "videotoolbox"):
		result.Selected = AccelVideoToolbox
	default:
		result.Selected = AccelCPU
	}
	return result
}

func probeHwaccels() []string {
	ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-hwaccels").Output()
	if err != nil {
		return nil
	}
	var accels []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Hardware") {
			continue
		}
		accels = append(accels, strings.ToLower(line))
	}
	return accels
}

func countGlob(pattern string) int {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return 0
	}
	return len(matches)
}

func probeOpenCL() bool {
	for _, p := range []string{"/etc/OpenCL/vendors", "/usr/lib/x86_64-linux-gnu/libOpenCL.so.1"} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
