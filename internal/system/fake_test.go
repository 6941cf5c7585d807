package system

import (
	"context"
	"errors"
	"sync"
)

// fakeSampler returns canned samples; fields may be changed between refreshes
type fakeSampler struct {
	mu       sync.Mutex
	cores    []CoreTimes
	memory   MemorySample
	disks    []DiskSample
	networks []NetworkSample
	cpuErr   error
	memErr   error
	diskErr  error
	netErr   error
	calls    int
	block    chan struct{}
}

func (f *fakeSampler) CPUTimes(ctx context.Context) ([]CoreTimes, error) {
	f.mu.Lock()
	block := f.block
	f.calls++
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CoreTimes(nil), f.cores...), f.cpuErr
}

func (f *fakeSampler) Memory(ctx context.Context) (MemorySample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memory, f.memErr
}

func (f *fakeSampler) Disks(ctx context.Context) ([]DiskSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DiskSample(nil), f.disks...), f.diskErr
}

func (f *fakeSampler) Networks(ctx context.Context) ([]NetworkSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]NetworkSample(nil), f.networks...), f.netErr
}

var errSample = errors.New("sample failed")
