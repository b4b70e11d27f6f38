package telemetry

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/sensors"

	"sentinel/internal/models"
)

// DefaultTemperature substitutes for a hardware reading when no known sensor
// group is present or the read is denied.
const DefaultTemperature = 50.0

// Sensor groups probed in priority order: vendor-specific CPU sensors first
// (AMD, then the AMD GPU as a proxy), then Intel, then the generic ACPI
// thermal zone.
var defaultSensorPriority = []string{"k10temp", "amdgpu", "coretemp", "acpitz"}

// Source reads instantaneous host metrics. CPU utilization is computed
// non-blockingly from the delta against the previous Sample call, so the
// first sample reports 0. Sample never fails its caller: every probe error
// degrades to a default value.
type Source struct {
	mu           sync.Mutex
	lastCPUTotal float64
	lastCPUIdle  float64

	sensorPriority []string

	// probe hooks, replaceable in tests
	cpuTimes         func(ctx context.Context) ([]cpu.TimesStat, error)
	virtualMemory    func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	readTemperatures func(ctx context.Context) ([]sensors.TemperatureStat, error)
}

// NewSource returns a Source probing the local host.
func NewSource() *Source {
	return &Source{
		sensorPriority:   defaultSensorPriority,
		cpuTimes:         func(ctx context.Context) ([]cpu.TimesStat, error) { return cpu.TimesWithContext(ctx, false) },
		virtualMemory:    mem.VirtualMemoryWithContext,
		readTemperatures: sensors.TemperaturesWithContext,
	}
}

// Sample reads CPU, RAM and temperature. The rolling-average and
// temperature-delta fields are deliberate simplifications carried over from
// the trained model's live path: the average echoes the instantaneous load
// and the delta is always zero. Computing real windows here would shift the
// input distribution the classifier was calibrated on.
func (s *Source) Sample(ctx context.Context) models.TelemetrySample {
	cpuLoad := s.cpuPercent(ctx)
	ramUsed := s.ramPercent(ctx)
	temp := s.temperature(ctx)

	return models.TelemetrySample{
		CPULoad:          cpuLoad,
		CPULoadAvg:       cpuLoad,
		RAMUsed:          ramUsed,
		Temperature:      temp,
		TemperatureDelta: 0,
		SampledAt:        time.Now(),
	}
}

func (s *Source) cpuPercent(ctx context.Context) float64 {
	stats, err := s.cpuTimes(ctx)
	if err != nil || len(stats) == 0 {
		return 0
	}
	total := cpuTotal(stats[0])
	idle := stats[0].Idle + stats[0].Iowait

	deltaTotal, deltaIdle, hasPrev := s.updateCPUSample(total, idle)
	if !hasPrev || deltaTotal <= 0 {
		return 0
	}
	used := deltaTotal - deltaIdle
	if used < 0 {
		used = 0
	}
	return clampFloat((used/deltaTotal)*100, 0, 100)
}

func (s *Source) updateCPUSample(total, idle float64) (float64, float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deltaTotal := total - s.lastCPUTotal
	deltaIdle := idle - s.lastCPUIdle
	hasPrev := s.lastCPUTotal > 0
	s.lastCPUTotal = total
	s.lastCPUIdle = idle
	return deltaTotal, deltaIdle, hasPrev
}

func (s *Source) ramPercent(ctx context.Context) float64 {
	stats, err := s.virtualMemory(ctx)
	if err != nil || stats == nil {
		return 0
	}
	return clampFloat(stats.UsedPercent, 0, 100)
}

// temperature walks the sensor groups in priority order and takes the first
// matching reading. Any failure (no sensors, permission denied) falls back to
// DefaultTemperature and is never surfaced.
func (s *Source) temperature(ctx context.Context) float64 {
	stats, err := s.readTemperatures(ctx)
	if err != nil || len(stats) == 0 {
		return DefaultTemperature
	}
	for _, group := range s.sensorPriority {
		for _, stat := range stats {
			if sensorInGroup(stat.SensorKey, group) {
				return stat.Temperature
			}
		}
	}
	return DefaultTemperature
}

// sensorInGroup matches a sensor key against a named group. Keys are exposed
// either as the bare group name or as group-prefixed entries
// (e.g. "coretemp_core_0").
func sensorInGroup(key, group string) bool {
	if key == group {
		return true
	}
	return strings.HasPrefix(key, group+"_")
}

func cpuTotal(stat cpu.TimesStat) float64 {
	return stat.User + stat.System + stat.Nice + stat.Idle + stat.Iowait +
		stat.Irq + stat.Softirq + stat.Steal + stat.Guest + stat.GuestNice
}

func clampFloat(val, min, max float64) float64 {
	if math.IsNaN(val) {
		return min
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
