package reshape

import (
	"bytes"
	"context"
	"strconv"

	"github.com/tinytelemetry/logway/internal/model"
	"golang.org/x/sync/errgroup"
)

// bucketConcurrency bounds the number of count queries in flight per request.
const bucketConcurrency = 4

// LatencyBucket is one labelled ms range of the latency histogram.
type LatencyBucket struct {
	Label string
	Range model.LatencyRange
}

// latencyBuckets partitions [0, +inf): ten 10ms-wide ranges then everything
// from 100 upwards.
var latencyBuckets = []LatencyBucket{
	{"0 - 10", model.LatencyRange{Lo: 0, Hi: 10}},
	{"10 - 20", model.LatencyRange{Lo: 10, Hi: 20}},
	{"20 - 30", model.LatencyRange{Lo: 20, Hi: 30}},
	{"30 - 40", model.LatencyRange{Lo: 30, Hi: 40}},
	{"40 - 50", model.LatencyRange{Lo: 40, Hi: 50}},
	{"50 - 60", model.LatencyRange{Lo: 50, Hi: 60}},
	{"60 - 70", model.LatencyRange{Lo: 60, Hi: 70}},
	{"70 - 80", model.LatencyRange{Lo: 70, Hi: 80}},
	{"80 - 90", model.LatencyRange{Lo: 80, Hi: 90}},
	{"90 - 100", model.LatencyRange{Lo: 90, Hi: 100}},
	{" > 100", model.LatencyRange{Lo: 100, Open: true}},
}

// Buckets returns the fixed histogram buckets in ascending order.
func Buckets() []LatencyBucket {
	return append([]LatencyBucket(nil), latencyBuckets...)
}

// BucketCount is a labelled count.
type BucketCount struct {
	Label string
	Count int64
}

// Histogram holds one count per fixed bucket, in bucket order.
type Histogram []BucketCount

// Get returns the count for a bucket label.
func (h Histogram) Get(label string) (int64, bool) {
	for _, bc := range h {
		if bc.Label == label {
			return bc.Count, true
		}
	}
	return 0, false
}

// Total sums all bucket counts.
func (h Histogram) Total() int64 {
	var total int64
	for _, bc := range h {
		total += bc.Count
	}
	return total
}

// MarshalJSON encodes the histogram as a label -> count object in bucket order.
func (h Histogram) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, bc := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := Encode(bc.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(bc.Count, 10))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// LatencyHistogram counts the entries of w falling in each fixed bucket, one
// backend count per bucket. All eleven buckets are present even when zero.
func LatencyHistogram(ctx context.Context, counter model.RangeCounter, w model.TimeWindow) (Histogram, error) {
	out := make(Histogram, len(latencyBuckets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bucketConcurrency)
	for i, b := range latencyBuckets {
		out[i].Label = b.Label
		g.Go(func() error {
			n, err := counter.CountInRange(gctx, w, b.Range)
			if err != nil {
				return err
			}
			out[i].Count = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
