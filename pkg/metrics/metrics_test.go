package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordInference(t *testing.T) {
	before := testutil.ToFloat64(InferenceCalls.WithLabelValues("image", "success"))
	RecordInference("image", "success", 50*time.Millisecond)
	after := testutil.ToFloat64(InferenceCalls.WithLabelValues("image", "success"))
	assert.Equal(t, before+1, after)
}

func TestRecordInferenceSkippedHasNoLatency(t *testing.T) {
	beforeCount := testutil.CollectAndCount(InferenceDuration)
	RecordInference("audience", "skipped", 0)
	assert.Equal(t, beforeCount, testutil.CollectAndCount(InferenceDuration))
}

func TestRecordStage(t *testing.T) {
	RecordStage("normalize", time.Now().Add(-time.Second))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(PipelineStageDuration), 1)
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(HistoryAppends.WithLabelValues("post"))
	HistoryAppends.WithLabelValues("post").Add(2)
	assert.Equal(t, before+2, testutil.ToFloat64(HistoryAppends.WithLabelValues("post")))
}
