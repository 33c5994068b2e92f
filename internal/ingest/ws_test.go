package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"vitalwatch/internal/models"
	"vitalwatch/internal/store"
)

// wsTestServer runs handler for every websocket connection it accepts.
func wsTestServer(t *testing.T, handler func(*websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handler(conn)
	}))
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSReaderStoresMessages(t *testing.T) {
	srv, url := wsTestServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"patientId":1,"measurementValue":75,"recordType":"HeartRate","timestamp":1000}`))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	defer srv.Close()

	st := store.New()
	reader := NewWSReader(url, st)
	if err := reader.consume(context.Background()); err != nil {
		t.Fatalf("consume() error: %v", err)
	}

	records := st.History(1)
	if len(records) != 1 {
		t.Fatalf("store has %d records, want 1", len(records))
	}
	if records[0].Kind != models.KindHeartRate || records[0].Value != 75 {
		t.Errorf("stored record = %+v", records[0])
	}
}

func TestWSReaderSkipsInvalidMessages(t *testing.T) {
	srv, url := wsTestServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"patientId":1,"measurementValue":75,"recordType":"NotAKind","timestamp":1000}`))
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"patientId":1,"measurementValue":75,"recordType":"HeartRate","timestamp":2000}`))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	defer srv.Close()

	st := store.New()
	reader := NewWSReader(url, st)
	if err := reader.consume(context.Background()); err != nil {
		t.Fatalf("consume() error: %v", err)
	}

	if got := len(st.History(1)); got != 1 {
		t.Errorf("store has %d records, want 1 (invalid messages skipped)", got)
	}
}

func TestWSReaderSessionsReleaseGoroutines(t *testing.T) {
	// The server drops every connection immediately, as a flaky data
	// server would across many redials.
	srv, url := wsTestServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})
	defer srv.Close()

	st := store.New()
	reader := NewWSReader(url, st)
	ctx := context.Background()

	const sessions = 10
	before := runtime.NumGoroutine()
	for i := 0; i < sessions; i++ {
		reader.consume(ctx)
	}
	time.Sleep(100 * time.Millisecond)
	after := runtime.NumGoroutine()

	if after >= before+sessions {
		t.Errorf("goroutines grew from %d to %d across %d sessions", before, after, sessions)
	}
}
