package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"trivia-chat-service/internal/app"
	"trivia-chat-service/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type configurePayload struct {
	Mode  string   `json:"mode"`
	Names []string `json:"names"`
}

type answerPayload struct {
	Text string `json:"text"`
}

type openedPayload struct {
	SessionID string           `json:"sessionId"`
	Engine    app.EngineKind   `json:"engine"`
	Entries   []domain.Message `json:"entries"`
	Sidebar   domain.Sidebar   `json:"sidebar"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and runs one game session per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	kind, err := app.ParseEngineKind(r.URL.Query().Get("engine"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sessionID, opened, err := h.service.Open(ctx, kind)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: newErrorPayload(err)})
		return
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	var inflight sync.WaitGroup

	// Only this goroutine writes to conn. After a failed write it keeps draining so
	// senders never block.
	go func() {
		defer close(writerDone)
		broken := false
		for msg := range send {
			if broken {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				broken = true
			}
		}
	}()

	emit := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-closeSignals:
		}
	}
	reply := func(dirs domain.Directives, err error) {
		if errors.Is(err, domain.ErrStaleResponse) {
			return
		}
		if err == nil || len(dirs.Entries) > 0 {
			emit(outboundMessage[any]{Type: "directives", Payload: dirs})
		}
		if err != nil {
			emit(outboundMessage[any]{Type: "error", Payload: newErrorPayload(err)})
		}
	}
	// Configure and answer may wait on the completion service, so they run aside and
	// the read loop stays free to accept a reset.
	async := func(intent domain.Intent) {
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			reply(h.service.Handle(ctx, sessionID, intent))
		}()
	}

	emit(outboundMessage[any]{Type: "opened", Payload: openedPayload{
		SessionID: sessionID,
		Engine:    kind,
		Entries:   opened.Entries,
		Sidebar:   opened.Sidebar,
	}})

	ended := false
	for !ended {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "configure":
			var payload configurePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply(domain.Directives{}, errInvalidPayload("configure"))
				continue
			}
			mode, err := domain.ParseMode(payload.Mode)
			if err != nil {
				reply(domain.Directives{}, err)
				continue
			}
			async(domain.Intent{Kind: domain.IntentConfigure, Mode: mode, Names: payload.Names})
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply(domain.Directives{}, errInvalidPayload("answer"))
				continue
			}
			async(domain.Intent{Kind: domain.IntentAnswer, Text: payload.Text})
		case "reset":
			reply(h.service.Handle(ctx, sessionID, domain.Intent{Kind: domain.IntentReset}))
		case "end":
			reply(h.service.Handle(ctx, sessionID, domain.Intent{Kind: domain.IntentEnd}))
			ended = true
		default:
			reply(domain.Directives{}, errUnsupportedType)
		}
	}

	if !ended {
		_, _ = h.service.Handle(ctx, sessionID, domain.Intent{Kind: domain.IntentEnd})
	}
	cancel()
	inflight.Wait()
	close(closeSignals)
	close(send)
	<-writerDone
}
