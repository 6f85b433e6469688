// Package selection picks the next question for a session from a candidate
// pool: difficulty-matched with nearest-tier fallback, never repeating a
// question within a session.
package selection

import (
	"math/rand"
	"sort"
	"time"

	"mykafa-quiz-service/internal/models"
)

type Selector struct {
	rand *rand.Rand
}

func NewSelector() *Selector {
	return NewSelectorWithSeed(time.Now().UnixNano())
}

// NewSelectorWithSeed fixes the random source, which keeps selection
// reproducible in tests.
func NewSelectorWithSeed(seed int64) *Selector {
	return &Selector{rand: rand.New(rand.NewSource(seed))}
}

// Pick chooses uniformly among candidates at the target difficulty, excluding
// already-served ids. When the target tier has no eligible candidates it
// falls back to the nearest tier by rank distance. Returns false when nothing
// is eligible at all.
func (s *Selector) Pick(candidates []models.Question, target models.Difficulty, excludeIDs []string) (*models.Question, bool) {
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	eligible := make([]models.Question, 0, len(candidates))
	for _, q := range candidates {
		if !excluded[q.ID] {
			eligible = append(eligible, q)
		}
	}
	if len(eligible) == 0 {
		return nil, false
	}

	pool := filterByDifficulty(eligible, target)
	if len(pool) == 0 {
		pool = nearestTierPool(eligible, target)
	}
	if len(pool) == 0 {
		return nil, false
	}

	picked := pool[s.rand.Intn(len(pool))]
	return &picked, true
}

func filterByDifficulty(questions []models.Question, d models.Difficulty) []models.Question {
	var out []models.Question
	for _, q := range questions {
		if q.Difficulty == d {
			out = append(out, q)
		}
	}
	return out
}

// nearestTierPool groups the remaining questions by distance from the target
// tier and returns the closest non-empty group. Ties prefer the easier tier.
func nearestTierPool(questions []models.Question, target models.Difficulty) []models.Question {
	byDifficulty := map[models.Difficulty][]models.Question{}
	for _, q := range questions {
		byDifficulty[q.Difficulty] = append(byDifficulty[q.Difficulty], q)
	}

	tiers := []models.Difficulty{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard}
	sort.SliceStable(tiers, func(i, j int) bool {
		di := abs(tiers[i].Rank() - target.Rank())
		dj := abs(tiers[j].Rank() - target.Rank())
		if di != dj {
			return di < dj
		}
		return tiers[i].Rank() < tiers[j].Rank()
	})

	for _, tier := range tiers {
		if pool := byDifficulty[tier]; len(pool) > 0 {
			return pool
		}
	}
	return nil
}

// PickWeakTopic picks a weak topic for remediation, preferring the one with
// the most candidate questions so the intervention cannot immediately run
// dry.
func (s *Selector) PickWeakTopic(weakTopics []string, countByTopic map[string]int) (string, bool) {
	best := ""
	bestCount := 0
	for _, topic := range weakTopics {
		if c := countByTopic[topic]; c > bestCount {
			best, bestCount = topic, c
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
