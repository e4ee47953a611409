package list

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	SortedListStatsName = "xboot/xsl"
)

type sortedListStats struct {
	insertCount   metric.Int64Counter
	insertHops    metric.Int64Histogram
	poisonedCount metric.Int64Counter
	length        metric.Int64ObservableGauge
}

func (stats *sortedListStats) RecordInsert(hops int64) {
	if stats == nil {
		return
	}
	stats.insertCount.Add(context.Background(), 1)
	stats.insertHops.Record(context.Background(), hops)
}

func (stats *sortedListStats) IncreasePoisonedCount(n int64) {
	if stats == nil || n <= 0 {
		return
	}
	stats.poisonedCount.Add(context.Background(), n)
}

func newSortedListStats(name string, lenFn func() int64) *sortedListStats {
	meterName := fmt.Sprintf("%s/%s", SortedListStatsName, name)
	meter := otel.Meter(meterName)
	return &sortedListStats{
		insertCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xsl.insert.count",
			metric.WithDescription("The number of values inserted into the sorted list."),
		)),
		insertHops: lo.Must[metric.Int64Histogram](meter.Int64Histogram(
			"xsl.insert.hops",
			metric.WithDescription("The number of nodes an insert passed before splicing."),
			metric.WithExplicitBucketBoundaries(0, 1, 4, 16, 64, 256, 1024, 4096, 16384),
		)),
		poisonedCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xsl.lock.poisoned.count",
			metric.WithDescription("The number of node locks poisoned by panicked holders."),
		)),
		length: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
			"xsl.len",
			metric.WithDescription("The number of elements in the sorted list."),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(lenFn())
				return nil
			}),
		)),
	}
}
