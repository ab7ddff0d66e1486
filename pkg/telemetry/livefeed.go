package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jihwankim/legion-fuzz/pkg/reporting"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveFeed broadcasts round summaries to any number of connected dashboard
// clients over websocket. Slow or dead clients are dropped rather than
// allowed to block publication to the rest.
type LiveFeed struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewLiveFeed creates an empty feed ready to accept connections.
func NewLiveFeed() *LiveFeed {
	return &LiveFeed{clients: make(map[*websocket.Conn]struct{})}
}

// Handler upgrades incoming requests and registers the connection until it
// closes or errors. It returns immediately after that, so callers wire it
// into an http.ServeMux as they would any other handler.
func (f *LiveFeed) Handler(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	f.mu.Lock()
	f.clients[ws] = struct{}{}
	f.mu.Unlock()

	// The feed is send-only from the server's side; block here reading
	// (and discarding) frames until the client disconnects, so Upgrade's
	// goroutine per connection isn't orphaned.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	f.mu.Lock()
	delete(f.clients, ws)
	f.mu.Unlock()
	ws.Close()
}

// Publish sends a round summary to every connected client. A client whose
// write deadline is exceeded is dropped from the broadcast set.
func (f *LiveFeed) Publish(summary reporting.RoundSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ws := range f.clients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteJSON(summary); err != nil {
			ws.Close()
			delete(f.clients, ws)
		}
	}
}

// Close disconnects every client, for use at run shutdown.
func (f *LiveFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ws := range f.clients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		ws.Close()
		delete(f.clients, ws)
	}
}
