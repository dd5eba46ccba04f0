package http

import (
	"encoding/json"
	"log"
	"net/http"

	"codequiz-session-service/internal/app"
	"github.com/gorilla/websocket"
)

// WSHandler drives one quiz session per websocket connection.
type WSHandler struct {
	registry   *app.Registry
	categories app.CategoryRepository
	provider   *app.Provider
	remote     app.SessionService
	history    app.HistoryStore
	upgrader   websocket.Upgrader
}

func NewWSHandler(registry *app.Registry, categories app.CategoryRepository, provider *app.Provider, remote app.SessionService, history app.HistoryStore) *WSHandler {
	return &WSHandler{
		registry:   registry,
		categories: categories,
		provider:   provider,
		remote:     remote,
		history:    history,
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

type startPayload struct {
	Language         string `json:"language"`
	QuestionCount    int    `json:"questionCount"`
	TimeLimitSeconds int    `json:"timeLimitSeconds"`
}

type languagePayload struct {
	Language string `json:"language"`
}

type answerPayload struct {
	QuestionID       string `json:"questionId"`
	Value            string `json:"value"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type answerResult struct {
	QuestionID    string `json:"questionId"`
	Correct       bool   `json:"correct"`
	PointsAwarded int    `json:"pointsAwarded"`
	Answered      int    `json:"answered"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and wires the connection into a session
// controller for the requesting user and category.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	categoryID := r.URL.Query().Get("categoryId")
	userID := r.URL.Query().Get("userId")
	if categoryID == "" || userID == "" {
		http.Error(w, "missing categoryId or userId", http.StatusBadRequest)
		return
	}

	category, err := h.categories.GetCategory(r.Context(), categoryID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctrl := h.registry.GetOrCreate(userID, categoryID, func() *app.Controller {
		return app.NewController(userID, category, h.provider, h.remote, h.history)
	})
	defer h.registry.Release(userID, categoryID)

	events, cancel := ctrl.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: event.Type, Payload: event}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if session := ctrl.Session(); session != nil {
		// Reattaching to an in-flight session: replay the current view.
		trySend(send, writerDone, outboundMessage[any]{Type: "session", Payload: newSessionView(session, ctrl.State(), ctrl.CurrentIndex())})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, ctrl, send, writerDone, inbound)
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, ctrl *app.Controller, send chan outboundMessage[any], writerDone <-chan struct{}, inbound inboundMessage) {
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil && len(inbound.Payload) > 0 {
			trySend(send, writerDone, errorMessage("invalid start payload"))
			return
		}
		err := ctrl.Start(r.Context(), app.StartOptions{
			Language:         payload.Language,
			QuestionCount:    payload.QuestionCount,
			TimeLimitSeconds: payload.TimeLimitSeconds,
		})
		if err != nil {
			trySend(send, writerDone, errorMessage(err.Error()))
			return
		}
		if session := ctrl.Session(); session != nil {
			trySend(send, writerDone, outboundMessage[any]{Type: "session", Payload: newSessionView(session, ctrl.State(), ctrl.CurrentIndex())})
		}
	case "selectLanguage":
		var payload languagePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			trySend(send, writerDone, errorMessage("invalid language payload"))
			return
		}
		if err := ctrl.SelectLanguage(payload.Language); err != nil {
			trySend(send, writerDone, errorMessage(err.Error()))
		}
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			trySend(send, writerDone, errorMessage("invalid answer payload"))
			return
		}
		entry, err := ctrl.SubmitAnswer(r.Context(), payload.QuestionID, payload.Value, payload.TimeSpentSeconds)
		if err != nil {
			trySend(send, writerDone, errorMessage(err.Error()))
			return
		}
		trySend(send, writerDone, outboundMessage[any]{Type: "answerResult", Payload: answerResult{
			QuestionID:    entry.QuestionID,
			Correct:       entry.Correct,
			PointsAwarded: entry.PointsAwarded,
			Answered:      ctrl.AnsweredCount(),
		}})
	case "goto":
		var payload gotoPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			trySend(send, writerDone, errorMessage("invalid goto payload"))
			return
		}
		if err := ctrl.GoToQuestion(payload.Index); err != nil {
			trySend(send, writerDone, errorMessage(err.Error()))
		}
	case "submit":
		if err := ctrl.SubmitQuiz(r.Context()); err != nil {
			trySend(send, writerDone, errorMessage(err.Error()))
		}
	default:
		trySend(send, writerDone, errorMessage("unsupported message type"))
	}
}

// trySend queues a message for the writer goroutine. If the writer has
// already exited on a write error, the message is dropped instead of
// blocking the read loop on a full buffer.
func trySend(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) {
	select {
	case send <- msg:
	case <-writerDone:
	}
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
