package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResultLabel(t *testing.T) {
	rejected := errors.New("rejected")
	isRejected := func(err error) bool { return errors.Is(err, rejected) }

	assert.Equal(t, ResultSuccess, ResultLabel(nil, isRejected))
	assert.Equal(t, ResultRejected, ResultLabel(rejected, isRejected))
	assert.Equal(t, ResultError, ResultLabel(errors.New("db down"), isRejected))
}

func TestCouponApplicationsCounter(t *testing.T) {
	before := testutil.ToFloat64(CouponApplications.WithLabelValues(ResultSuccess))
	CouponApplications.WithLabelValues(ResultSuccess).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CouponApplications.WithLabelValues(ResultSuccess)))
}
