package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"grownest-service/internal/app"
	"grownest-service/internal/domain"
)

// WalkthroughLoader loads walkthrough quiz JSONB from Postgres and normalizes
// it into the uniform question representation.
type WalkthroughLoader struct {
	pool *pgxpool.Pool
}

func NewWalkthroughLoader(pool *pgxpool.Pool) *WalkthroughLoader {
	return &WalkthroughLoader{pool: pool}
}

func (l *WalkthroughLoader) Load(ctx context.Context, mode domain.GameMode, id string) (domain.QuestionSet, error) {
	if mode != domain.ModeWalkthrough {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM walkthrough_quizzes WHERE id=$1`, id).Scan(&raw)
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("load walkthrough quiz: %w", err)
	}
	var items []domain.WalkthroughQuestion
	if err := json.Unmarshal(raw, &items); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("unmarshal walkthrough quiz: %w", err)
	}
	return domain.QuestionSet{Questions: app.NormalizeWalkthrough(items)}, nil
}
