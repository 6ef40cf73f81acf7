package api

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	heapAlloc = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "gmstats_heap_alloc_bytes",
			Help: "Bytes of allocated heap objects.",
		},
		func() float64 {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return float64(m.HeapAlloc)
		},
	)
	numGC = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "gmstats_gc_cycles",
			Help: "Completed GC cycles.",
		},
		func() float64 {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return float64(m.NumGC)
		},
	)
)

func init() {
	prometheus.MustRegister(heapAlloc)
	prometheus.MustRegister(numGC)
}

func metricsHandler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
}
