package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRecordBatch(t *testing.T) {
	assigned := recordsProcessedCounter.WithLabelValues("assigned")
	unassignable := recordsProcessedCounter.WithLabelValues("unassignable")
	invalid := recordsProcessedCounter.WithLabelValues("invalid_child_id")
	tag := unrecognizedTagCounter.WithLabelValues("speed_drill")

	assignedBefore := counterValue(t, assigned)
	unassignableBefore := counterValue(t, unassignable)
	invalidBefore := counterValue(t, invalid)
	gapsBefore := counterValue(t, resolutionGapCounter)
	tagBefore := counterValue(t, tag)

	RecordBatch(BatchStats{
		Assigned:         5,
		Unassignable:     3,
		InvalidChildID:   1,
		ResolutionGaps:   2,
		UnrecognizedTags: map[string]int{"speed_drill": 4},
		Duration:         20 * time.Millisecond,
	})

	require.Equal(t, assignedBefore+5, counterValue(t, assigned))
	require.Equal(t, unassignableBefore+2, counterValue(t, unassignable))
	require.Equal(t, invalidBefore+1, counterValue(t, invalid))
	require.Equal(t, gapsBefore+2, counterValue(t, resolutionGapCounter))
	require.Equal(t, tagBefore+4, counterValue(t, tag))
}

func TestRecordDigest(t *testing.T) {
	sent := digestCounter.WithLabelValues("sent")
	before := counterValue(t, sent)
	RecordDigest("sent")
	require.Equal(t, before+1, counterValue(t, sent))
}

func TestTagLabelerCapsDistinctValues(t *testing.T) {
	l := newTagLabeler(2)

	require.Equal(t, "drill", l.label("drill"))
	require.Equal(t, "sprint", l.label("sprint"))
	require.Equal(t, otherTagLabel, l.label("mystery"))
	require.Equal(t, otherTagLabel, l.label("another"))
	// tags admitted before the cap keep their own label
	require.Equal(t, "drill", l.label("drill"))
}
