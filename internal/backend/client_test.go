package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"grownest-service/internal/domain"
)

const (
	lessonID = "11111111-1111-1111-1111-111111111111"
	moduleID = "22222222-2222-2222-2222-222222222222"
)

func TestLessonQuestionsNormalized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/lessons/"+lessonID+"/questions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"questions": [{
				"id": "q-1",
				"question": "Pick one",
				"options": [{"letter":"A","text":"one","answerId":"ans-1"}],
				"explanation": "why"
			}],
			"tree_state": {"growth_points":10,"current_stage":1,"total_stages":5,"points_per_stage":20}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	set, err := client.LessonQuestions(context.Background(), lessonID)
	if err != nil {
		t.Fatalf("lesson questions: %v", err)
	}
	if len(set.Questions) != 1 || set.Questions[0].Prompt != "Pick one" {
		t.Fatalf("unexpected questions: %+v", set.Questions)
	}
	if set.Questions[0].CorrectLetter != "" {
		t.Fatalf("remote question leaked a correct letter")
	}
	if set.Tree == nil || set.Tree.GrowthPoints != 10 {
		t.Fatalf("unexpected tree state: %+v", set.Tree)
	}
}

func TestPlaceholderIDSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	set, err := client.LessonQuestions(context.Background(), "42")
	if err != nil {
		t.Fatalf("placeholder id must not error: %v", err)
	}
	if len(set.Questions) != 0 {
		t.Fatalf("expected empty set, got %+v", set)
	}
	if _, err := client.SaveFreeRoamProgress(context.Background(), "7", domain.ProgressSubmission{}); err != nil {
		t.Fatalf("placeholder id must not error: %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("placeholder ids must never reach the network, got %d hits", hits.Load())
	}
}

func TestBadRequestIsRejectedNotTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "lesson video not watched", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.LessonQuestions(context.Background(), lessonID)
	if !errors.Is(err, domain.ErrRejected) {
		t.Fatalf("expected ErrRejected for 400, got %v", err)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.FreeRoamQuestions(context.Background(), moduleID)
	if err == nil || errors.Is(err, domain.ErrRejected) {
		t.Fatalf("expected a transient error, got %v", err)
	}
}

func TestSaveFreeRoamProgressVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		w.Write([]byte(`{
			"is_correct": true,
			"growth_points_earned": 10,
			"fertilizer_bonus": false,
			"coins_earned": 5,
			"tree_state": {"growth_points":40,"current_stage":2,"total_stages":5,"points_per_stage":20}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	verdict, err := client.SaveFreeRoamProgress(context.Background(), moduleID, domain.ProgressSubmission{
		QuestionID:         "q-1",
		AnswerID:           "ans-1",
		ConsecutiveCorrect: 2,
	})
	if err != nil {
		t.Fatalf("save progress: %v", err)
	}
	if !verdict.Correct || verdict.GrowthPointsEarned != 10 || verdict.CoinsEarned != 5 {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	if verdict.Tree == nil || verdict.Tree.CurrentStage != 2 {
		t.Fatalf("unexpected tree: %+v", verdict.Tree)
	}
}
