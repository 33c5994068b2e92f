package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"vitalwatch/internal/logger"
	"vitalwatch/internal/metrics"
	"vitalwatch/internal/models"
	"vitalwatch/internal/store"
)

const (
	// wsHandshakeTimeout bounds the initial dial.
	wsHandshakeTimeout = 10 * time.Second

	// wsReconnectDelay is the pause before redialing a dropped stream.
	wsReconnectDelay = 2 * time.Second
)

// WSReader consumes real-time measurements from a websocket server. Each
// text message is one JSON object in the RecordInput schema. Invalid
// messages are logged and skipped; a dropped connection is redialed
// until the context is cancelled.
type WSReader struct {
	url   string
	store *store.Store
}

// NewWSReader creates a reader for the given websocket URL.
func NewWSReader(url string, st *store.Store) *WSReader {
	return &WSReader{url: url, store: st}
}

// Run dials the server and consumes messages until ctx is cancelled.
func (w *WSReader) Run(ctx context.Context) error {
	log := logger.WithComponent("ws_reader")

	for {
		if err := w.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().
				Err(err).
				Str("url", w.url).
				Dur("retry_in", wsReconnectDelay).
				Msg("websocket stream dropped")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wsReconnectDelay):
		}
	}
}

// consume runs one dial-and-read session.
func (w *WSReader) consume(ctx context.Context) error {
	log := logger.WithComponent("ws_reader")

	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info().Str("url", w.url).Msg("connected to data server")

	// Unblock ReadMessage when the context is cancelled. The done channel
	// releases the closer once this session ends on its own, so redials
	// do not accumulate goroutines.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}

		w.handleMessage(data)
	}
}

// handleMessage parses and stores one incoming JSON message.
func (w *WSReader) handleMessage(data []byte) {
	log := logger.WithComponent("ws_reader")

	var input RecordInput
	if err := json.Unmarshal(data, &input); err != nil {
		log.Warn().Err(err).Str("message", string(data)).Msg("skipping unparseable message")
		metrics.ReaderMessagesTotal.WithLabelValues("websocket", "skipped").Inc()
		return
	}

	rec, err := w.convert(input)
	if err != nil {
		log.Warn().Err(err).Str("message", string(data)).Msg("skipping invalid message")
		metrics.ReaderMessagesTotal.WithLabelValues("websocket", "skipped").Inc()
		return
	}
	metrics.ReaderMessagesTotal.WithLabelValues("websocket", "parsed").Inc()

	outcome, err := w.store.Record(rec)
	metrics.IngestRecordsTotal.WithLabelValues("websocket", outcome.String()).Inc()
	if outcome == store.OutcomeInvalid {
		log.Warn().Err(err).Int("patient_id", rec.PatientID).Msg("dropping invalid record")
	}
}

// convert validates required fields and resolves the kind label.
func (w *WSReader) convert(input RecordInput) (models.Record, error) {
	if input.PatientID == 0 || input.Kind == "" {
		return models.Record{}, errors.New("missing required fields")
	}

	kind, err := models.NormalizeKind(input.Kind)
	if err != nil {
		return models.Record{}, err
	}

	return models.Record{
		PatientID: input.PatientID,
		Kind:      kind,
		Value:     input.Value,
		Status:    input.Status,
		Timestamp: input.Timestamp,
	}, nil
}
