package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/preview", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200"))

	resp, err := http.Get(ts.URL + "/preview")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200"))
	require.Equal(t, before+1, after)
}

func TestPreviewCounters(t *testing.T) {
	before := testutil.ToFloat64(previewRequestsTotal.WithLabelValues(AgentCrawler))
	ObservePreview(AgentCrawler)
	after := testutil.ToFloat64(previewRequestsTotal.WithLabelValues(AgentCrawler))
	require.Equal(t, before+1, after)

	before = testutil.ToFloat64(settingsLookupFailuresTotal)
	ObserveLookupFailure()
	after = testutil.ToFloat64(settingsLookupFailuresTotal)
	require.Equal(t, before+1, after)

	before = testutil.ToFloat64(invalidationEventsTotal.WithLabelValues("upserted"))
	ObserveInvalidation("upserted")
	after = testutil.ToFloat64(invalidationEventsTotal.WithLabelValues("upserted"))
	require.Equal(t, before+1, after)

	before = testutil.ToFloat64(contactRelayTotal.WithLabelValues("sent"))
	ObserveContactRelay("sent")
	after = testutil.ToFloat64(contactRelayTotal.WithLabelValues("sent"))
	require.Equal(t, before+1, after)

	// Histograms only need to not panic here.
	ObserveRenderDuration(15 * time.Millisecond)
	ObserveHTTPRequest("GET", "/preview", 200, 5*time.Millisecond)
}

func TestHandlerServesMetrics(t *testing.T) {
	ts := httptest.NewServer(Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // test cleanup
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
