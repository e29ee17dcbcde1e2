// Package backend is the HTTP client for the learning-platform REST API. The
// platform itself is an external collaborator; only its contracts live here.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"grownest-service/internal/app"
	"grownest-service/internal/domain"
)

// Client talks to the learning platform. It applies the identifier-shape
// guard: numeric frontend placeholder IDs never reach the network.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type questionSetPayload struct {
	Questions []app.RemoteQuestion `json:"questions"`
	Tree      *domain.TreeState    `json:"tree_state"`
}

type progressResultPayload struct {
	IsCorrect          bool              `json:"is_correct"`
	GrowthPointsEarned int               `json:"growth_points_earned"`
	FertilizerBonus    bool              `json:"fertilizer_bonus"`
	CoinsEarned        int               `json:"coins_earned"`
	Tree               *domain.TreeState `json:"tree_state"`
}

// LessonQuestions fetches the lesson's question batch and current tree state.
func (c *Client) LessonQuestions(ctx context.Context, lessonID string) (domain.QuestionSet, error) {
	if !isPersistedID(lessonID) {
		log.Printf("lesson %q is a placeholder id, skipping fetch", lessonID)
		return domain.QuestionSet{}, nil
	}
	var payload questionSetPayload
	if err := c.getJSON(ctx, fmt.Sprintf("/api/lessons/%s/questions", lessonID), &payload); err != nil {
		return domain.QuestionSet{}, err
	}
	return domain.QuestionSet{Questions: app.NormalizeRemote(payload.Questions), Tree: payload.Tree}, nil
}

// SubmitLessonAnswers sends the end-of-quiz batch and returns the server's scoring.
func (c *Client) SubmitLessonAnswers(ctx context.Context, lessonID string, batch domain.BatchSubmission) (domain.BatchResult, error) {
	if !isPersistedID(lessonID) {
		log.Printf("lesson %q is a placeholder id, skipping batch submit", lessonID)
		return domain.BatchResult{}, nil
	}
	var result domain.BatchResult
	if err := c.postJSON(ctx, fmt.Sprintf("/api/lessons/%s/answers", lessonID), batch, &result); err != nil {
		return domain.BatchResult{}, err
	}
	return result, nil
}

// FreeRoamQuestions fetches the module's full practice question set.
func (c *Client) FreeRoamQuestions(ctx context.Context, moduleID string) (domain.QuestionSet, error) {
	if !isPersistedID(moduleID) {
		log.Printf("module %q is a placeholder id, skipping fetch", moduleID)
		return domain.QuestionSet{}, nil
	}
	var payload questionSetPayload
	if err := c.getJSON(ctx, fmt.Sprintf("/api/modules/%s/freeroam/questions", moduleID), &payload); err != nil {
		return domain.QuestionSet{}, err
	}
	return domain.QuestionSet{Questions: app.NormalizeRemote(payload.Questions), Tree: payload.Tree}, nil
}

// SaveFreeRoamProgress submits one answer. The submission's is_correct field
// is a placeholder; the returned ServerVerdict carries the real decision.
func (c *Client) SaveFreeRoamProgress(ctx context.Context, moduleID string, sub domain.ProgressSubmission) (domain.ServerVerdict, error) {
	if !isPersistedID(moduleID) {
		log.Printf("module %q is a placeholder id, skipping progress save", moduleID)
		return domain.ServerVerdict{}, nil
	}
	var payload progressResultPayload
	if err := c.postJSON(ctx, fmt.Sprintf("/api/modules/%s/freeroam/progress", moduleID), sub, &payload); err != nil {
		return domain.ServerVerdict{}, err
	}
	return domain.ServerVerdict{
		Correct:            payload.IsCorrect,
		GrowthPointsEarned: payload.GrowthPointsEarned,
		CoinsEarned:        payload.CoinsEarned,
		FertilizerBonus:    payload.FertilizerBonus,
		Tree:               payload.Tree,
	}, nil
}

// FreeRoamState fetches the persisted tree state for resuming a module.
func (c *Client) FreeRoamState(ctx context.Context, moduleID string) (*domain.TreeState, error) {
	if !isPersistedID(moduleID) {
		return nil, nil
	}
	var tree domain.TreeState
	if err := c.getJSON(ctx, fmt.Sprintf("/api/modules/%s/freeroam/state", moduleID), &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// Load implements the question-source contract for the API modes.
func (c *Client) Load(ctx context.Context, mode domain.GameMode, id string) (domain.QuestionSet, error) {
	switch mode {
	case domain.ModeLesson:
		return c.LessonQuestions(ctx, id)
	case domain.ModeFreeRoam:
		return c.FreeRoamQuestions(ctx, id)
	}
	return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("learning platform: %w", err)
	}
	defer resp.Body.Close()

	// 400 encodes a business rule (video not watched, lesson already played),
	// not a transient fault; it gets its own error so callers never retry it.
	if resp.StatusCode == http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s", domain.ErrRejected, bytes.TrimSpace(msg))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("learning platform: unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("learning platform: decode response: %w", err)
	}
	return nil
}

// isPersistedID reports whether the ID is a server-assigned UUID rather than
// a frontend-only placeholder.
func isPersistedID(id string) bool {
	return uuid.Validate(id) == nil
}
