package system

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		part, total uint64
		want        float64
	}{
		{"zero total", 10, 0, 0},
		{"zero part", 0, 10, 0},
		{"half", 5, 10, 50},
		{"full", 10, 10, 100},
		{"over", 15, 10, 150},
		{"large", math.MaxUint64 / 2, math.MaxUint64, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percent(tt.part, tt.total)
			assert.InDelta(t, tt.want, got, 1e-6)
			assert.False(t, math.IsNaN(got))
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Mean([]float64{}))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)
}

func TestCoreUsage(t *testing.T) {
	assert.InDelta(t, 50.0, coreUsage(nil, CoreTimes{Busy: 5, Total: 10}), 1e-9)
	assert.Equal(t, 0.0, coreUsage(nil, CoreTimes{}))
	assert.InDelta(t, 20.0, coreUsage(&CoreTimes{Busy: 5, Total: 10}, CoreTimes{Busy: 7, Total: 20}), 1e-9)
	// no time elapsed between samples
	assert.Equal(t, 0.0, coreUsage(&CoreTimes{Busy: 5, Total: 10}, CoreTimes{Busy: 5, Total: 10}))
	// counters went backwards
	assert.Equal(t, 0.0, coreUsage(&CoreTimes{Busy: 9, Total: 10}, CoreTimes{Busy: 5, Total: 20}))
}

func TestProperUnit(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
		{2 << 40, "2.0 TiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProperUnit(tt.in))
	}
}
