package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"grownest-service/internal/app"
	"grownest-service/internal/domain"
)

// WSHandler drives one minigame session per websocket connection.
type WSHandler struct {
	service  *app.MinigameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.MinigameService) *WSHandler {
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

type answerPayload struct {
	Letter string `json:"letter"`
}

type sessionPayload struct {
	SessionID      string          `json:"sessionId"`
	Mode           domain.GameMode `json:"mode"`
	TotalQuestions int             `json:"totalQuestions"`
	StartScreen    bool            `json:"startScreen"`
}

type questionPayload struct {
	Index   int             `json:"index"`
	Total   int             `json:"total"`
	ID      string          `json:"id"`
	Prompt  string          `json:"prompt"`
	Options []optionPayload `json:"options"`
}

type optionPayload struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

type feedbackPayload struct {
	Letter          string          `json:"letter"`
	Correct         bool            `json:"correct"`
	Deferred        bool            `json:"deferred"`
	FertilizerBonus bool            `json:"fertilizerBonus"`
	Explanation     string          `json:"explanation,omitempty"`
	Progress        domain.Progress `json:"progress"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the session loop: start → answer/next
// → minigameResult + minigameCompleted. Quitting or disconnecting aborts the
// session; minigameCompleted is a hard exit either way.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	mode := domain.GameMode(r.URL.Query().Get("mode"))
	if !mode.Valid() {
		http.Error(w, "missing or invalid mode", http.StatusBadRequest)
		return
	}
	params := app.StartParams{
		Mode:            mode,
		LessonID:        r.URL.Query().Get("lessonId"),
		ModuleID:        r.URL.Query().Get("moduleId"),
		WalkthroughID:   r.URL.Query().Get("walkthroughId"),
		ShowStartScreen: r.URL.Query().Get("startScreen") == "true",
	}
	if mode == domain.ModeLesson && params.LessonID == "" {
		http.Error(w, "missing lessonId", http.StatusBadRequest)
		return
	}
	if mode == domain.ModeFreeRoam && params.ModuleID == "" {
		http.Error(w, "missing moduleId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.StartSession(r.Context(), params)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	_ = conn.WriteJSON(outboundMessage[sessionPayload]{Type: "session", Payload: sessionPayload{
		SessionID:      session.ID(),
		Mode:           session.Mode(),
		TotalQuestions: session.TotalQuestions(),
		StartScreen:    session.State() == app.StateStartScreen,
	}})

	// An empty question set completes immediately.
	if result, ok := session.Result(); ok {
		h.finish(conn, session.ID(), result)
		return
	}

	if session.State() == app.StateAnswering {
		h.sendQuestion(conn, session)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			// Disconnect mid-quiz is a hard exit with no result.
			h.service.Abort(session.ID())
			return
		}

		switch inbound.Type {
		case "start":
			if err := session.Begin(); err != nil {
				h.sendError(conn, err)
				continue
			}
			h.sendQuestion(conn, session)

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, errors.New("invalid answer payload"))
				continue
			}
			outcome, err := session.SubmitAnswer(r.Context(), payload.Letter)
			if err != nil {
				// Interactions during an in-flight submission or after an
				// answer are dropped, not queued.
				if errors.Is(err, domain.ErrSubmissionInFlight) || errors.Is(err, domain.ErrAlreadyAnswered) {
					continue
				}
				h.sendError(conn, err)
				continue
			}
			_ = conn.WriteJSON(outboundMessage[feedbackPayload]{Type: "feedback", Payload: feedbackPayload{
				Letter:          payload.Letter,
				Correct:         outcome.Correct,
				Deferred:        outcome.Deferred,
				FertilizerBonus: outcome.FertilizerBonus,
				Explanation:     outcome.Explanation,
				Progress:        session.Progress(),
			}})

		case "next":
			done, err := session.Advance(r.Context())
			if err != nil {
				if errors.Is(err, domain.ErrSubmissionInFlight) {
					continue
				}
				h.sendError(conn, err)
				continue
			}
			if !done {
				h.sendQuestion(conn, session)
				continue
			}
			result, _ := session.Result()
			h.finish(conn, session.ID(), result)
			return

		case "quit":
			h.service.Abort(session.ID())
			_ = conn.WriteJSON(outboundMessage[struct{}]{Type: "minigameCompleted"})
			return

		default:
			h.sendError(conn, errors.New("unsupported message type"))
		}
	}
}

func (h *WSHandler) sendQuestion(conn *websocket.Conn, session *app.Session) {
	q, index, ok := session.CurrentQuestion()
	if !ok {
		return
	}
	options := make([]optionPayload, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, optionPayload{Letter: opt.Letter, Text: opt.Text})
	}
	_ = conn.WriteJSON(outboundMessage[questionPayload]{Type: "question", Payload: questionPayload{
		Index:   index,
		Total:   session.TotalQuestions(),
		ID:      q.ID,
		Prompt:  q.Prompt,
		Options: options,
	}})
}

func (h *WSHandler) finish(conn *websocket.Conn, sessionID string, result domain.SessionResult) {
	_ = conn.WriteJSON(outboundMessage[domain.SessionResult]{Type: "minigameResult", Payload: result})
	_ = conn.WriteJSON(outboundMessage[struct{}]{Type: "minigameCompleted"})
	h.service.Finish(sessionID)
}

func (h *WSHandler) sendError(conn *websocket.Conn, err error) {
	_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
}
