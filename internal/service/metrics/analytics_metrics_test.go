package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(AdvisorErrors.WithLabelValues("test_endpoint"))

	Observe("test_endpoint", time.Now(), nil)
	Observe("test_endpoint", time.Now(), errors.New("boom"))

	assert.Equal(t, before+1, testutil.ToFloat64(AdvisorErrors.WithLabelValues("test_endpoint")))
}
