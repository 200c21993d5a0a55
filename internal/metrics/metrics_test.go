package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET /api/schedule", "4xx"))
	ObserveHTTP("GET /api/schedule", http.StatusNotFound, 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET /api/schedule", "4xx")))
}

func TestIncVisitMutation(t *testing.T) {
	okBefore := testutil.ToFloat64(visitMutations.WithLabelValues("move_visit", "ok"))
	errBefore := testutil.ToFloat64(visitMutations.WithLabelValues("move_visit", "error"))

	IncVisitMutation("move_visit", nil)
	IncVisitMutation("move_visit", errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(visitMutations.WithLabelValues("move_visit", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(visitMutations.WithLabelValues("move_visit", "error")))
}

func TestCodeClass(t *testing.T) {
	assert.Equal(t, "2xx", codeClass(204))
	assert.Equal(t, "3xx", codeClass(304))
	assert.Equal(t, "4xx", codeClass(409))
	assert.Equal(t, "5xx", codeClass(503))
}
