package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/MAR2807/ai-chatbot-v3/core/logx"
)

var (
	hostCPUDesc = prometheus.NewDesc(
		"relay_host_cpu_percent",
		"Host CPU utilisation since the previous scrape",
		nil, nil,
	)
	hostMemUsedDesc = prometheus.NewDesc(
		"relay_host_memory_used_bytes",
		"Host memory in use",
		nil, nil,
	)
	hostMemTotalDesc = prometheus.NewDesc(
		"relay_host_memory_total_bytes",
		"Total host memory",
		nil, nil,
	)
)

// hostCollector samples host CPU and memory on every scrape. A failed sample
// is logged and its series omitted from that scrape.
type hostCollector struct {
	cpuPercent func() ([]float64, error)
	virtualMem func() (*mem.VirtualMemoryStat, error)
}

// NewHostCollector returns a collector reporting host CPU and memory.
func NewHostCollector() prometheus.Collector {
	return &hostCollector{
		// An interval of 0 compares against the previous call.
		cpuPercent: func() ([]float64, error) { return cpu.Percent(0, false) },
		virtualMem: mem.VirtualMemory,
	}
}

func (c *hostCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- hostCPUDesc
	ch <- hostMemUsedDesc
	ch <- hostMemTotalDesc
}

func (c *hostCollector) Collect(ch chan<- prometheus.Metric) {
	if pct, err := c.cpuPercent(); err != nil || len(pct) == 0 {
		logx.Log.Debug().Err(err).Msg("sample host cpu")
	} else {
		ch <- prometheus.MustNewConstMetric(hostCPUDesc, prometheus.GaugeValue, pct[0])
	}
	vm, err := c.virtualMem()
	if err != nil || vm == nil {
		logx.Log.Debug().Err(err).Msg("sample host memory")
		return
	}
	ch <- prometheus.MustNewConstMetric(hostMemUsedDesc, prometheus.GaugeValue, float64(vm.Used))
	ch <- prometheus.MustNewConstMetric(hostMemTotalDesc, prometheus.GaugeValue, float64(vm.Total))
}

// RegisterRuntime registers Go runtime, process and host collectors with r.
func RegisterRuntime(r prometheus.Registerer) {
	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewHostCollector(),
	)
}
