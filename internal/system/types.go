package system

// SystemInfo is one immutable telemetry snapshot
type SystemInfo struct {
	CPU     CpuInfo       `json:"cpu"`
	Memory  MemoryInfo    `json:"memory"`
	Disks   []DiskInfo    `json:"disks"`
	Network []NetworkInfo `json:"network"`
}

// CpuInfo holds overall and per-core utilisation
type CpuInfo struct {
	UsagePercent float64    `json:"usage_percent"`
	Cores        []CoreInfo `json:"cores"`
}

type CoreInfo struct {
	ID           int     `json:"id"`
	UsagePercent float64 `json:"usage_percent"`
}

// MemoryInfo represents memory usage information
type MemoryInfo struct {
	TotalBytes     uint64  `json:"total_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsagePercent   float64 `json:"usage_percent"`
}

// DiskInfo represents usage of one mounted filesystem
type DiskInfo struct {
	Name           string  `json:"name"`
	MountPoint     string  `json:"mount_point"`
	TotalBytes     uint64  `json:"total_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsagePercent   float64 `json:"usage_percent"`
}

// NetworkInfo carries cumulative interface counters as reported by the host
type NetworkInfo struct {
	Interface        string `json:"interface"`
	ReceivedBytes    uint64 `json:"received_bytes"`
	TransmittedBytes uint64 `json:"transmitted_bytes"`
}

// CoreTimes is the cumulative busy and total CPU time of one core, in seconds
type CoreTimes struct {
	Busy  float64
	Total float64
}

type MemorySample struct {
	Total     uint64
	Used      uint64
	Available uint64
}

type DiskSample struct {
	Name       string
	MountPoint string
	Total      uint64
	Available  uint64
}

type NetworkSample struct {
	Interface   string
	Received    uint64
	Transmitted uint64
}
