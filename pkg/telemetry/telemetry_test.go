package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/legion-fuzz/pkg/reporting"
)

func TestRecordRoundUpdatesCounters(t *testing.T) {
	before := testutil.ToFloat64(roundsTotal)

	RecordRound(reporting.RoundSummary{BatchSize: 5, NewPaths: 2, ElapsedSeconds: 0.5, BugFound: true})

	assert.Equal(t, before+1, testutil.ToFloat64(roundsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(bugFound))
}

func TestSetTreeSizeAndColourCounts(t *testing.T) {
	SetTreeSize(12)
	assert.Equal(t, float64(12), testutil.ToFloat64(treeSize))

	SetColourCounts(map[string]int{"White": 3, "Red": 2, "Gold": 2, "Black": 5})
	assert.Equal(t, float64(3), testutil.ToFloat64(nodesByColour.WithLabelValues("White")))
	assert.Equal(t, float64(5), testutil.ToFloat64(nodesByColour.WithLabelValues("Black")))
}

func TestMetricsHandlerServesPlaintextFormat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "legion_search_rounds_total"))
}

func TestLiveFeedPublishesToConnectedClient(t *testing.T) {
	feed := NewLiveFeed()
	server := httptest.NewServer(http.HandlerFunc(feed.Handler))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server goroutine a moment to register the connection
	// before the publish, since Handler registers it asynchronously
	// relative to the client's Dial returning.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		feed.mu.Lock()
		n := len(feed.clients)
		feed.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	feed.Publish(reporting.RoundSummary{Round: 7, NewPaths: 3})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got reporting.RoundSummary
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, 7, got.Round)
	assert.Equal(t, 3, got.NewPaths)
}
