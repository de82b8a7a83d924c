package thumbnail

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricThumbnails = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mediamon_thumbnails_processed_total",
	Help: "Artwork processed by the thumbnail pipeline, by outcome",
}, []string{"outcome"})
