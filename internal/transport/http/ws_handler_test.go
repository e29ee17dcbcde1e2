package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"grownest-service/internal/app"
	"grownest-service/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewSessionStore()
	// Walkthrough mode with no inline questions runs the built-in set; no
	// remote source or backend needed.
	service := app.NewMinigameService(store, app.RoutedQuestionSource{}, nil)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	return httptest.NewServer(mux)
}

func TestWalkthroughFlowToResult(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?mode=legacy"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgType, payload := readNext(conn, t, "session")
	total, _ := payload["totalQuestions"].(float64)
	if msgType != "session" || total != 3 {
		t.Fatalf("expected session with built-in 3-question set, got %s %+v", msgType, payload)
	}

	// Default set answers in order: A, B, C.
	for i, letter := range []string{"A", "B", "C"} {
		_, q := readNext(conn, t, "question")
		if int(q["index"].(float64)) != i {
			t.Fatalf("expected question index %d, got %+v", i, q)
		}

		if err := conn.WriteJSON(map[string]any{"type": "answer", "payload": map[string]any{"letter": letter}}); err != nil {
			t.Fatalf("write answer: %v", err)
		}
		_, fb := readNext(conn, t, "feedback")
		if fb["correct"] != true {
			t.Fatalf("expected correct feedback for %s, got %+v", letter, fb)
		}

		if err := conn.WriteJSON(map[string]any{"type": "next"}); err != nil {
			t.Fatalf("write next: %v", err)
		}
	}

	_, result := readNext(conn, t, "minigameResult")
	if result["correctCount"].(float64) != 3 || result["fertilizerBonuses"].(float64) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	progress, _ := result["progress"].(map[string]any)
	if progress["stage"].(float64) != 7 {
		t.Fatalf("expected fully grown tree, got %+v", progress)
	}

	if typ, _ := readNext(conn, t, "minigameCompleted"); typ != "minigameCompleted" {
		t.Fatalf("expected hard-exit signal, got %s", typ)
	}
}

func TestQuitIsHardExitWithoutResult(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?mode=legacy"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, "session")
	readNext(conn, t, "question")

	if err := conn.WriteJSON(map[string]any{"type": "quit"}); err != nil {
		t.Fatalf("write quit: %v", err)
	}
	// minigameCompleted arrives with no minigameResult before it.
	if typ, _ := readNext(conn, t, "minigameCompleted"); typ != "minigameCompleted" {
		t.Fatalf("expected minigameCompleted, got %s", typ)
	}
}

func TestStartScreenWaitsForStart(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?mode=legacy&startScreen=true"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_, payload := readNext(conn, t, "session")
	if payload["startScreen"] != true {
		t.Fatalf("expected start screen flag, got %+v", payload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	if typ, _ := readNext(conn, t, "question"); typ != "question" {
		t.Fatalf("expected first question after start, got %s", typ)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
