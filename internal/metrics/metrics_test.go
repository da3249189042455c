package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusBucket(t *testing.T) {
	assert.Equal(t, "1xx", StatusBucket(101))
	assert.Equal(t, "2xx", StatusBucket(204))
	assert.Equal(t, "3xx", StatusBucket(302))
	assert.Equal(t, "4xx", StatusBucket(403))
	assert.Equal(t, "5xx", StatusBucket(502))
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest("GET /api/catalog", 200, 5*time.Millisecond)
	m.ObserveRequest("GET /api/catalog", 201, time.Millisecond)
	m.IncIngest("url", "ok")
	m.IncIngest("url", "error")
	m.AddItemsIngested("file", 3)
	m.SetCatalogSize(42)
	m.IncStoreSave("gonet_media_items")
	m.IncStoreSave("")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET /api/catalog", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestsTotal.WithLabelValues("url", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.itemsIngested.WithLabelValues("file")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.catalogItems))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeSaves.WithLabelValues("all")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SetCatalogSize(7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gonet_catalog_items 7")
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.ObserveRequest("x", 500, time.Second)
	r.IncIngest("file", "ok")
	r.AddItemsIngested("file", 1)
	r.SetCatalogSize(1)
	r.IncStoreSave("k")
}
