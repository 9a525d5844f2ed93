// File: pkg/storage/gcp/metrics.go
package gcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	monitoringpb "cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	metricTimeWindow = 72 * time.Hour
	totalBytesMetric = "storage.googleapis.com/storage/v2/total_bytes"
)

// ErrMetricsNotFound indicates that the usage metrics could not be found within the queried time range
// This often happens for new buckets that haven't reported metrics yet
var ErrMetricsNotFound = errors.New("usage metrics not found in the monitoring window")

// Builds the aggregated total_bytes query for one bucket
func usageRequest(projectID, bucketName string, now time.Time) *monitoringpb.ListTimeSeriesRequest {
	return &monitoringpb.ListTimeSeriesRequest{
		Name:   fmt.Sprintf("projects/%s", projectID),
		Filter: fmt.Sprintf(`metric.type="%s" AND resource.labels.bucket_name="%s"`, totalBytesMetric, bucketName),
		Interval: &monitoringpb.TimeInterval{
			StartTime: timestamppb.New(now.Add(-metricTimeWindow)),
			EndTime:   timestamppb.New(now),
		},
		Aggregation: &monitoringpb.Aggregation{
			AlignmentPeriod:    durationpb.New(metricTimeWindow),
			PerSeriesAligner:   monitoringpb.Aggregation_ALIGN_MEAN,
			CrossSeriesReducer: monitoringpb.Aggregation_REDUCE_SUM,
			GroupByFields:      []string{"resource.labels.bucket_name"},
		},
	}
}

func (g *GCPBuckets) getSingleBucketUsage(ctx context.Context, bucketName string) (int64, error) {
	g.logger.Debug("Fetching bucket usage metric via Monitoring API", zap.String("bucket", bucketName))
	client, err := monitoring.NewMetricClient(ctx, g.monitoringOpts...)
	if err != nil {
		return -1, fmt.Errorf("failed to create monitoring client: %w", err)
	}
	defer client.Close()

	it := client.ListTimeSeries(ctx, usageRequest(g.projectID, bucketName, time.Now()))

	// Everything is summed into one series, so only the first response matters
	resp, err := it.Next()
	if err == iterator.Done {
		return -1, ErrMetricsNotFound
	}
	if err != nil {
		return -1, fmt.Errorf("error getting metric data for bucket %s: %w", bucketName, err)
	}

	if len(resp.GetPoints()) > 0 {
		return extractUsageValue(resp.GetPoints()[0].GetValue()), nil
	}
	return -1, ErrMetricsNotFound
}

func extractUsageValue(pointValue *monitoringpb.TypedValue) int64 {
	if pointValue == nil {
		return 0
	}

	switch v := pointValue.Value.(type) {
	case *monitoringpb.TypedValue_DoubleValue:
		return int64(math.Round(v.DoubleValue))
	case *monitoringpb.TypedValue_Int64Value:
		return v.Int64Value
	default:
		return 0
	}
}
