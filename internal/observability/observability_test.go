package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveMLCall(t *testing.T) {
	before := testutil.ToFloat64(MLRequests.WithLabelValues("/predict", OutcomeError))
	ObserveMLCall("/predict", time.Now(), errors.New("boom"))
	after := testutil.ToFloat64(MLRequests.WithLabelValues("/predict", OutcomeError))
	assert.Equal(t, before+1, after)
}

func TestRecordScreening(t *testing.T) {
	before := testutil.ToFloat64(ScreeningsTotal.WithLabelValues("positive"))
	RecordScreening(1)
	assert.Equal(t, before+1, testutil.ToFloat64(ScreeningsTotal.WithLabelValues("positive")))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "pcoscare-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	span, ctx := StartClientSpan(context.Background(), "ml-service", "predict")
	require.NotNil(t, ctx)
	span.SetError(errors.New("upstream failed"))
	span.End()
}
