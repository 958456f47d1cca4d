package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cubefs/mdscore/cache"
	"github.com/cubefs/mdscore/load"
)

const namespace = "mdscore"

var (
	Registry = prometheus.NewRegistry()

	SampleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sampler",
		Name:      "duration_seconds",
		Help:      "time spent sampling every shard once",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})
	SampleErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sampler",
		Name:      "errors_total",
		Help:      "failed shard samples",
	}, []string{"shard"})
)

func init() {
	Registry.MustRegister(
		SampleDuration,
		SampleErrors,
	)
}

// LoadSource hands out the most recent node load and cache counts.
type LoadSource interface {
	Latest() (load.MDSLoad, cache.ShardStats)
}

// Collector exports a LoadSource on every scrape.
type Collector struct {
	src LoadSource

	metaLoad   *prometheus.Desc
	popularity *prometheus.Desc
	reqRate    *prometheus.Desc
	hitRate    *prometheus.Desc
	queueLen   *prometheus.Desc
	cpuLoad    *prometheus.Desc
	objects    *prometheus.Desc
}

func NewCollector(src LoadSource) *Collector {
	return &Collector{
		src: src,
		metaLoad: prometheus.NewDesc(prometheus.BuildFQName(namespace, "load", "meta"),
			"weighted metadata load", []string{"scope"}, nil),
		popularity: prometheus.NewDesc(prometheus.BuildFQName(namespace, "load", "popularity"),
			"decayed popularity per access class", []string{"scope", "class"}, nil),
		reqRate: prometheus.NewDesc(prometheus.BuildFQName(namespace, "load", "request_rate"),
			"requests per second", nil, nil),
		hitRate: prometheus.NewDesc(prometheus.BuildFQName(namespace, "load", "cache_hit_rate"),
			"fraction of lookups served from cache", nil, nil),
		queueLen: prometheus.NewDesc(prometheus.BuildFQName(namespace, "load", "queue_length"),
			"queued requests", nil, nil),
		cpuLoad: prometheus.NewDesc(prometheus.BuildFQName(namespace, "load", "cpu_loadavg"),
			"one minute load average", nil, nil),
		objects: prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "objects"),
			"cached objects by what holds them", []string{"state"}, nil),
	}
}

// Register adds a collector for src to Registry.
func Register(src LoadSource) (*Collector, error) {
	c := NewCollector(src)
	if err := Registry.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.metaLoad
	ch <- c.popularity
	ch <- c.reqRate
	ch <- c.hitRate
	ch <- c.queueLen
	ch <- c.cpuLoad
	ch <- c.objects
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	l, st := c.src.Latest()

	for _, scope := range []struct {
		name string
		load *load.DirFragLoad
	}{{"auth", &l.Auth}, {"all", &l.All}} {
		ch <- prometheus.MustNewConstMetric(c.metaLoad, prometheus.GaugeValue, scope.load.MetaLoadLast(), scope.name)
		for i := 0; i < load.NumPop; i++ {
			ch <- prometheus.MustNewConstMetric(c.popularity, prometheus.GaugeValue,
				scope.load.Get(i).GetLast(), scope.name, load.PopName(i))
		}
	}
	ch <- prometheus.MustNewConstMetric(c.reqRate, prometheus.GaugeValue, l.ReqRate)
	ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, l.CacheHitRate)
	ch <- prometheus.MustNewConstMetric(c.queueLen, prometheus.GaugeValue, l.QueueLen)
	ch <- prometheus.MustNewConstMetric(c.cpuLoad, prometheus.GaugeValue, l.CPULoadAvg)

	for _, s := range []struct {
		name string
		n    int
	}{
		{"total", st.Objects},
		{"pinned", st.Pinned},
		{"replicated", st.Replicated},
		{"leased", st.Leased},
		{"waiting", st.Waiting},
	} {
		ch <- prometheus.MustNewConstMetric(c.objects, prometheus.GaugeValue, float64(s.n), s.name)
	}
}
