package domain

// GameMode selects how answers are evaluated and where correctness authority lives.
type GameMode string

const (
	// ModeWalkthrough is the offline/local path: the correct letter is known
	// client-side and nothing is persisted. Kept as "legacy" on the wire.
	ModeWalkthrough GameMode = "legacy"
	// ModeLesson batches all answers into one submission at the end of the quiz.
	ModeLesson GameMode = "lesson"
	// ModeFreeRoam submits and scores every answer individually.
	ModeFreeRoam GameMode = "freeroam"
)

// Valid reports whether the mode is one of the three supported variants.
func (m GameMode) Valid() bool {
	switch m {
	case ModeWalkthrough, ModeLesson, ModeFreeRoam:
		return true
	}
	return false
}

// Option is one selectable answer for a question. AnswerID is the
// server-assigned opaque token; it is empty in walkthrough mode.
type Option struct {
	Letter   string `json:"letter"`
	Text     string `json:"text"`
	AnswerID string `json:"answerId,omitempty"`
}

// Question is one quiz item, immutable once a session is constructed.
// CorrectLetter is populated only in walkthrough mode; in the API modes the
// correct answer is known only to the server.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []Option `json:"options"`
	CorrectLetter string   `json:"correctLetter,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// OptionByLetter returns the option matching the given letter.
func (q Question) OptionByLetter(letter string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Letter == letter {
			return opt, true
		}
	}
	return Option{}, false
}

// WalkthroughQuestion is the raw walkthrough input shape, correct answer
// included client-side.
type WalkthroughQuestion struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []Option `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// TreeState is the server-tracked growth state of the player's tree.
// CurrentStage is 0-based on the wire and displayed 1-based.
type TreeState struct {
	GrowthPoints   int  `json:"growth_points"`
	CurrentStage   int  `json:"current_stage"`
	TotalStages    int  `json:"total_stages"`
	PointsPerStage int  `json:"points_per_stage"`
	Completed      bool `json:"completed"`
	PreviousStage  int  `json:"previous_stage,omitempty"`
	StageIncreased bool `json:"stage_increased,omitempty"`
	JustCompleted  bool `json:"just_completed,omitempty"`
}

// QuestionSet is a loaded set of questions plus the tree state that came with
// it (nil for walkthrough sets).
type QuestionSet struct {
	Questions []Question `json:"questions"`
	Tree      *TreeState `json:"tree_state,omitempty"`
}

// LocalVerdict is a correctness decision computed client-side from the known
// correct letter. Only walkthrough mode may produce one.
type LocalVerdict struct {
	Correct bool
}

// ServerVerdict is a correctness decision returned by the learning platform.
// The is_correct placeholder sent with the submission is never trusted; only
// this verdict is.
type ServerVerdict struct {
	Correct            bool
	GrowthPointsEarned int
	CoinsEarned        int
	FertilizerBonus    bool
	Tree               *TreeState
}

// EvaluationOutcome is what a single answer submission produces. Deferred
// means correctness is not yet known (lesson mode, pending batch submit).
type EvaluationOutcome struct {
	Correct         bool   `json:"correct"`
	Deferred        bool   `json:"deferred"`
	FertilizerBonus bool   `json:"fertilizerBonus"`
	Explanation     string `json:"explanation,omitempty"`
}

// PendingAnswer is a buffered lesson-mode answer awaiting batch submission.
type PendingAnswer struct {
	QuestionID string `json:"question_id"`
	AnswerID   string `json:"answer_id"`
}

// BatchSubmission is the lesson-mode end-of-quiz payload.
type BatchSubmission struct {
	Answers            []PendingAnswer `json:"answers"`
	ConsecutiveCorrect int             `json:"consecutive_correct"`
}

// BatchResult is the server's scoring of a lesson batch. CorrectCount is
// authoritative and overwrites any locally tracked score.
type BatchResult struct {
	CorrectCount       int        `json:"correct_count"`
	TotalQuestions     int        `json:"total_questions"`
	GrowthPointsEarned int        `json:"growth_points_earned"`
	FertilizerBonus    bool       `json:"fertilizer_bonus"`
	CoinsEarned        int        `json:"coins_earned"`
	Tree               *TreeState `json:"tree_state"`
}

// ProgressSubmission is one free-roam answer. IsCorrect is a placeholder the
// server ignores; the returned ServerVerdict carries the real decision.
type ProgressSubmission struct {
	QuestionID         string `json:"question_id"`
	AnswerID           string `json:"answer_id"`
	IsCorrect          bool   `json:"is_correct"`
	ConsecutiveCorrect int    `json:"consecutive_correct"`
}

// Progress is the display-facing tree progression: a discrete stage in [1,7]
// and a continuous percentage.
type Progress struct {
	Stage   int     `json:"stage"`
	Percent float64 `json:"percent"`
}

// SessionResult is the terminal payload emitted once when a session completes.
type SessionResult struct {
	Mode               GameMode   `json:"mode"`
	LessonID           string     `json:"lessonId,omitempty"`
	ModuleID           string     `json:"moduleId,omitempty"`
	TotalQuestions     int        `json:"totalQuestions"`
	CorrectCount       int        `json:"correctCount"`
	GrowthPointsEarned int        `json:"growthPointsEarned"`
	CoinsEarned        int        `json:"coinsEarned"`
	FertilizerBonuses  int        `json:"fertilizerBonuses"`
	Tree               *TreeState `json:"treeState,omitempty"`
	ConsecutiveCorrect int        `json:"consecutiveCorrect"`
	Progress           Progress   `json:"progress"`
}
