package app

import "grownest-service/internal/domain"

// Stage bounds for the visual tree set. Partial local scores never reach the
// fully grown stage; only a perfect score does.
const (
	minStage        = 1
	maxStage        = 7
	maxPartialStage = 6
)

// ComputeProgress maps session progress onto a display stage and percentage.
// When server tree state is present it is authoritative; otherwise the stage
// is derived from the local score. Pure and idempotent.
func ComputeProgress(tree *domain.TreeState, score, totalQuestions int) domain.Progress {
	if tree != nil {
		return treeProgress(tree)
	}
	return scoreProgress(score, totalQuestions)
}

func treeProgress(tree *domain.TreeState) domain.Progress {
	// The server's stage is 0-based and capped lower than the visual set; the
	// display clamp allows the full range up to 7.
	stage := tree.CurrentStage + 1
	if stage < minStage {
		stage = minStage
	}
	if stage > maxStage {
		stage = maxStage
	}
	percent := 0.0
	if denom := tree.TotalStages * tree.PointsPerStage; denom > 0 {
		percent = float64(tree.GrowthPoints) / float64(denom) * 100
	}
	return domain.Progress{Stage: stage, Percent: percent}
}

func scoreProgress(score, total int) domain.Progress {
	if total <= 0 {
		return domain.Progress{Stage: minStage, Percent: 0}
	}
	if score <= 0 {
		return domain.Progress{Stage: minStage, Percent: 0}
	}
	if score >= total {
		return domain.Progress{Stage: maxStage, Percent: 100}
	}
	pct := float64(score) / float64(total)
	stage := int(pct*5) + 2
	if stage > maxPartialStage {
		stage = maxPartialStage
	}
	return domain.Progress{Stage: stage, Percent: pct * 100}
}
