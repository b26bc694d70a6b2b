package http

import (
	"context"
	"errors"
	"log"
	"net/http"

	"ffquiz-service/internal/app"
	"ffquiz-service/internal/domain"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	quizzes  *app.QuizService
	board    *app.LeaderboardService
	tokens   TokenParser
	upgrader websocket.Upgrader
}

func NewWSHandler(quizzes *app.QuizService, board *app.LeaderboardService, tokens TokenParser) *WSHandler {
	return &WSHandler{
		quizzes: quizzes,
		board:   board,
		tokens:  tokens,
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

type selectPayload struct {
	Option *int `json:"option"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func errorMessage(err error) outboundMessage {
	status, body := errorBody(err)
	msg, _ := body["error"].(string)
	return outboundMessage{Type: "error", Payload: errorPayload{Message: msg, Status: status}}
}

// ServeWS plays one quiz over a websocket. The browser cannot set headers on
// the upgrade request, so the bearer token travels in the query string.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	token := r.URL.Query().Get("token")
	if quizID == "" || token == "" {
		http.Error(w, "missing quizId or token", http.StatusBadRequest)
		return
	}
	userID, err := h.tokens.Parse(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Settle and abandon must complete even once the peer has gone.
	ctx := context.WithoutCancel(r.Context())

	view, err := h.resumeOrStart(ctx, userID, quizID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}

	updates, cancel, err := h.board.Subscribe(ctx, domain.FieldTotalCoins)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches the connection for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("ws encode %s: %v", msg.Type, err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	emit := func(msg outboundMessage) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	emit(outboundMessage{Type: "state", Payload: view})

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: "leaderboard", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	finished := view.Status == domain.SessionFinished
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var inbound inboundMessage
		if err := json.Unmarshal(data, &inbound); err != nil {
			emit(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid message", Status: http.StatusBadRequest}})
			continue
		}
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
				emit(errorMessage(domain.ErrInvalidOption))
				continue
			}
			view, err := h.quizzes.SelectAnswer(ctx, userID, *payload.Option)
			if err != nil {
				emit(errorMessage(err))
				continue
			}
			emit(outboundMessage{Type: "state", Payload: view})
		case "advance":
			view, err := h.quizzes.Advance(ctx, userID)
			if err != nil {
				emit(errorMessage(err))
				continue
			}
			finished = view.Status == domain.SessionFinished
			emit(outboundMessage{Type: "state", Payload: view})
		case "settle":
			result, err := h.quizzes.Settle(ctx, userID)
			if err != nil {
				emit(errorMessage(err))
				continue
			}
			emit(outboundMessage{Type: "settled", Payload: result})
		default:
			emit(outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type", Status: http.StatusBadRequest}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone

	if !finished {
		if err := h.quizzes.Abandon(ctx, userID); err != nil {
			log.Printf("abandon session for %s: %v", userID, err)
		}
	}
}

// resumeOrStart reconnects to an unsettled session for quizID or starts a
// new one.
func (h *WSHandler) resumeOrStart(ctx context.Context, userID, quizID string) (domain.SessionView, error) {
	view, err := h.quizzes.Current(ctx, userID)
	switch {
	case err == nil && view.QuizID == quizID && !view.Saved:
		return view, nil
	case err != nil && !errors.Is(err, domain.ErrSessionNotFound):
		return domain.SessionView{}, err
	}
	return h.quizzes.Start(ctx, userID, quizID)
}
