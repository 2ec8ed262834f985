package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shirou/gopsutil/v4/mem"
)

func TestHostCollector(t *testing.T) {
	c := &hostCollector{
		cpuPercent: func() ([]float64, error) { return []float64{12.5}, nil },
		virtualMem: func() (*mem.VirtualMemoryStat, error) {
			return &mem.VirtualMemoryStat{Used: 1024, Total: 4096}, nil
		},
	}
	want := `
# HELP relay_host_cpu_percent Host CPU utilisation since the previous scrape
# TYPE relay_host_cpu_percent gauge
relay_host_cpu_percent 12.5
# HELP relay_host_memory_total_bytes Total host memory
# TYPE relay_host_memory_total_bytes gauge
relay_host_memory_total_bytes 4096
# HELP relay_host_memory_used_bytes Host memory in use
# TYPE relay_host_memory_used_bytes gauge
relay_host_memory_used_bytes 1024
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(want)); err != nil {
		t.Fatalf("collect: %v", err)
	}
}

func TestHostCollectorSkipsFailedSamples(t *testing.T) {
	c := &hostCollector{
		cpuPercent: func() ([]float64, error) { return nil, errors.New("no cpu stats") },
		virtualMem: func() (*mem.VirtualMemoryStat, error) { return &mem.VirtualMemoryStat{Used: 1, Total: 2}, nil },
	}
	if n := testutil.CollectAndCount(c); n != 2 {
		t.Fatalf("expected 2 series without cpu, got %d", n)
	}
	c.virtualMem = func() (*mem.VirtualMemoryStat, error) { return nil, errors.New("no meminfo") }
	if n := testutil.CollectAndCount(c); n != 0 {
		t.Fatalf("expected no series, got %d", n)
	}
}

func TestRegisterRuntime(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterRuntime(reg)
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var goroutines bool
	for _, mf := range mfs {
		if mf.GetName() == "go_goroutines" {
			goroutines = true
		}
	}
	if !goroutines {
		t.Fatalf("go collector not registered")
	}
}
