package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/host"
)

// HostSummary describes the machine for the startup log line,
// e.g. "fedora 41 x86_64 (linux 6.11.4) on workstation"
func HostSummary(ctx context.Context) (string, error) {
	hostStat, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get host info: %w", err)
	}

	return fmt.Sprintf("%s %s %s (%s %s) on %s",
		hostStat.Platform, hostStat.PlatformVersion, hostStat.KernelArch,
		hostStat.OS, hostStat.KernelVersion, hostStat.Hostname), nil
}
