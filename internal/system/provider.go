package system

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"waybarx/internal/log"
)

// Provider keeps the latest raw host counters and derives SystemInfo on read.
// CPU+memory, disks and network are independently locked facets so a slow
// disk refresh never holds up a CPU read.
type Provider struct {
	sampler Sampler
	logger  zerolog.Logger

	refreshMu sync.Mutex

	sysMu     sync.Mutex
	sysValid  bool
	prevCores []CoreTimes
	cores     []CoreTimes
	memory    MemorySample

	diskMu sync.Mutex
	disks  []DiskSample

	netMu    sync.Mutex
	networks []NetworkSample
}

// NewProvider creates a provider and takes an initial full sample
func NewProvider(sampler Sampler) *Provider {
	if sampler == nil {
		sampler = HostSampler{}
	}
	p := &Provider{
		sampler: sampler,
		logger:  log.With("metrics"),
	}
	p.Refresh(context.Background())
	return p
}

// Refresh re-samples every facet. It reports false without sampling when
// another refresh is already running.
func (p *Provider) Refresh(ctx context.Context) bool {
	if !p.refreshMu.TryLock() {
		p.logger.Debug().Msg("refresh already running, skipping cycle")
		return false
	}
	defer p.refreshMu.Unlock()

	p.refreshSystem(ctx)
	p.refreshDisks(ctx)
	p.refreshNetworks(ctx)
	return true
}

func (p *Provider) refreshSystem(ctx context.Context) {
	cores, cpuErr := p.sampler.CPUTimes(ctx)
	memory, memErr := p.sampler.Memory(ctx)

	p.sysMu.Lock()
	defer p.sysMu.Unlock()

	if cpuErr != nil || memErr != nil {
		p.logger.Warn().AnErr("cpu", cpuErr).AnErr("memory", memErr).Msg("system sample failed")
		p.sysValid = false
		p.prevCores, p.cores = nil, nil
		return
	}
	// a changed core count makes the old sample meaningless for deltas
	if len(p.cores) == len(cores) {
		p.prevCores = p.cores
	} else {
		p.prevCores = nil
	}
	p.cores = cores
	p.memory = memory
	p.sysValid = true
	p.logger.Debug().
		Int("cores", len(cores)).
		Str("memory_used", ProperUnit(memory.Used)).
		Msg("system sampled")
}

func (p *Provider) refreshDisks(ctx context.Context) {
	disks, err := p.sampler.Disks(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("disk sample failed")
		disks = nil
	}

	p.diskMu.Lock()
	p.disks = disks
	p.diskMu.Unlock()
}

func (p *Provider) refreshNetworks(ctx context.Context) {
	networks, err := p.sampler.Networks(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("network sample failed")
		networks = nil
	}

	p.netMu.Lock()
	p.networks = networks
	p.netMu.Unlock()
}

// Info returns the snapshot derived from the latest committed samples.
// It reports false when the CPU/memory facet is busy or was never read
// successfully; busy disk or network facets degrade to empty lists.
func (p *Provider) Info() (*SystemInfo, bool) {
	cpu, memory, ok := p.cpuAndMemory()
	if !ok {
		return nil, false
	}
	return &SystemInfo{
		CPU:     cpu,
		Memory:  memory,
		Disks:   p.diskInfo(),
		Network: p.networkInfo(),
	}, true
}

func (p *Provider) cpuAndMemory() (CpuInfo, MemoryInfo, bool) {
	if !p.sysMu.TryLock() {
		return CpuInfo{}, MemoryInfo{}, false
	}
	defer p.sysMu.Unlock()

	if !p.sysValid {
		return CpuInfo{}, MemoryInfo{}, false
	}

	cores := make([]CoreInfo, len(p.cores))
	usages := make([]float64, len(p.cores))
	for i, cur := range p.cores {
		var prev *CoreTimes
		if p.prevCores != nil {
			prev = &p.prevCores[i]
		}
		usages[i] = coreUsage(prev, cur)
		cores[i] = CoreInfo{ID: i, UsagePercent: usages[i]}
	}

	memory := MemoryInfo{
		TotalBytes:     p.memory.Total,
		UsedBytes:      p.memory.Used,
		AvailableBytes: p.memory.Available,
		UsagePercent:   Percent(p.memory.Used, p.memory.Total),
	}
	return CpuInfo{UsagePercent: Mean(usages), Cores: cores}, memory, true
}

func (p *Provider) diskInfo() []DiskInfo {
	if !p.diskMu.TryLock() {
		return []DiskInfo{}
	}
	defer p.diskMu.Unlock()

	disks := make([]DiskInfo, 0, len(p.disks))
	for _, d := range p.disks {
		var used uint64
		if d.Total > d.Available {
			used = d.Total - d.Available
		}
		disks = append(disks, DiskInfo{
			Name:           d.Name,
			MountPoint:     d.MountPoint,
			TotalBytes:     d.Total,
			UsedBytes:      used,
			AvailableBytes: d.Available,
			UsagePercent:   Percent(used, d.Total),
		})
	}
	return disks
}

func (p *Provider) networkInfo() []NetworkInfo {
	if !p.netMu.TryLock() {
		return []NetworkInfo{}
	}
	defer p.netMu.Unlock()

	networks := make([]NetworkInfo, 0, len(p.networks))
	for _, n := range p.networks {
		networks = append(networks, NetworkInfo{
			Interface:        n.Interface,
			ReceivedBytes:    n.Received,
			TransmittedBytes: n.Transmitted,
		})
	}
	return networks
}

// Run refreshes the provider every interval until ctx is done
func (p *Provider) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info().Dur("interval", interval).Msg("metrics refresh started")
	for {
		select {
		case <-ticker.C:
			p.Refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}
