package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// Sampler reads raw counters from the host, one facet per call
type Sampler interface {
	CPUTimes(ctx context.Context) ([]CoreTimes, error)
	Memory(ctx context.Context) (MemorySample, error)
	Disks(ctx context.Context) ([]DiskSample, error)
	Networks(ctx context.Context) ([]NetworkSample, error)
}

// pseudo filesystems never reported as disks
var ignoredFSTypes = map[string]struct{}{
	"autofs":      {},
	"binfmt_misc": {},
	"bpf":         {},
	"cgroup":      {},
	"cgroup2":     {},
	"configfs":    {},
	"debugfs":     {},
	"devfs":       {},
	"devpts":      {},
	"devtmpfs":    {},
	"efivarfs":    {},
	"fusectl":     {},
	"hugetlbfs":   {},
	"mqueue":      {},
	"nsfs":        {},
	"overlay":     {},
	"proc":        {},
	"pstore":      {},
	"ramfs":       {},
	"securityfs":  {},
	"squashfs":    {},
	"sysfs":       {},
	"tmpfs":       {},
	"tracefs":     {},
}

// HostSampler samples the local machine through gopsutil
type HostSampler struct{}

func (HostSampler) CPUTimes(ctx context.Context) ([]CoreTimes, error) {
	stats, err := cpu.TimesWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get CPU times: %w", err)
	}
	times := make([]CoreTimes, 0, len(stats))
	for _, s := range stats {
		// Guest time is already accounted in User on Linux
		total := s.User + s.System + s.Idle + s.Nice + s.Iowait + s.Irq + s.Softirq + s.Steal
		times = append(times, CoreTimes{
			Busy:  total - s.Idle - s.Iowait,
			Total: total,
		})
	}
	return times, nil
}

func (HostSampler) Memory(ctx context.Context) (MemorySample, error) {
	memStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemorySample{}, fmt.Errorf("failed to get memory info: %w", err)
	}
	return MemorySample{
		Total:     memStat.Total,
		Used:      memStat.Used,
		Available: memStat.Available,
	}, nil
}

// Disks lists physical partitions, one entry per mount point.
// Partitions whose usage cannot be read are skipped.
func (HostSampler) Disks(ctx context.Context) ([]DiskSample, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	seen := make(map[string]struct{}, len(parts))
	disks := make([]DiskSample, 0, len(parts))
	for _, p := range parts {
		if p.Mountpoint == "" {
			continue
		}
		if _, ignored := ignoredFSTypes[p.Fstype]; ignored {
			continue
		}
		if _, dup := seen[p.Mountpoint]; dup {
			continue
		}
		seen[p.Mountpoint] = struct{}{}

		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		disks = append(disks, DiskSample{
			Name:       p.Device,
			MountPoint: p.Mountpoint,
			Total:      usage.Total,
			Available:  usage.Free,
		})
	}
	return disks, nil
}

func (HostSampler) Networks(ctx context.Context) ([]NetworkSample, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get network counters: %w", err)
	}
	nets := make([]NetworkSample, 0, len(counters))
	for _, c := range counters {
		nets = append(nets, NetworkSample{
			Interface:   c.Name,
			Received:    c.BytesRecv,
			Transmitted: c.BytesSent,
		})
	}
	return nets, nil
}
