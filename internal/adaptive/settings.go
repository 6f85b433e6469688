package adaptive

import "mykafa-quiz-service/internal/models"

// DifficultyAdjustment controls how fast the target difficulty reacts to
// recent answers.
type DifficultyAdjustment string

const (
	AdjustConservative DifficultyAdjustment = "conservative"
	AdjustModerate     DifficultyAdjustment = "moderate"
	AdjustAggressive   DifficultyAdjustment = "aggressive"
)

func (a DifficultyAdjustment) Valid() bool {
	switch a {
	case AdjustConservative, AdjustModerate, AdjustAggressive:
		return true
	}
	return false
}

// ScoringRules holds the point constants applied by the evaluator.
type ScoringRules struct {
	CorrectPoints    float64 `json:"correct_points"`
	IncorrectPenalty float64 `json:"incorrect_penalty"`
	TimeBonus        float64 `json:"time_bonus"`
	HintPenalty      float64 `json:"hint_penalty"`
}

// HintThresholds is the minimum number of wrong submissions on the current
// question before a hint unlocks, per ability tier. Lower-ability students
// get hints sooner.
type HintThresholds struct {
	LowAbility    int `json:"low_ability"`
	MediumAbility int `json:"medium_ability"`
	HighAbility   int `json:"high_ability"`
}

// Tier is the ability band a student currently sits in.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

func (h HintThresholds) For(tier Tier) int {
	switch tier {
	case TierLow:
		return h.LowAbility
	case TierHigh:
		return h.HighAbility
	}
	return h.MediumAbility
}

// Settings configures one quiz session. Banding thresholds and ability step
// magnitudes are deliberately configuration, not literals.
type Settings struct {
	MaxQuestions     int                  `json:"max_questions"`
	TimeLimitSeconds int                  `json:"time_limit_seconds"` // 0 means no session limit
	Adjustment       DifficultyAdjustment `json:"adjustment"`
	Scoring          ScoringRules         `json:"scoring"`
	HintThresholds   HintThresholds       `json:"hint_thresholds"`

	// Ability bands: below EasyBandMax targets easy, above HardBandMin
	// targets hard, medium in between. The same bands pick the hint tier.
	EasyBandMax float64 `json:"easy_band_max"`
	HardBandMin float64 `json:"hard_band_min"`

	// Ability step base per adjustment mode, scaled by difficulty weights.
	StepBase map[DifficultyAdjustment]float64 `json:"step_base"`

	// Weight of a correct answer per difficulty (correct-on-hard moves the
	// estimate most). IncorrectWeights invert this so missing an easy
	// question costs the most.
	CorrectWeights   map[models.Difficulty]float64 `json:"correct_weights"`
	IncorrectWeights map[models.Difficulty]float64 `json:"incorrect_weights"`

	// Target share of served questions per difficulty. Zero value disables
	// quota balancing.
	Distribution map[models.Difficulty]float64 `json:"distribution"`

	// Consecutive wrong answers that trigger a remedial question pulled from
	// a flagged weak topic. Conservative mode intervenes one answer earlier.
	RemediationStreak int `json:"remediation_streak"`

	// Consecutive correct remedial answers on a topic before the flag clears.
	WeakTopicClearStreak int `json:"weak_topic_clear_streak"`

	// Wholly wrong submissions allowed per question before it retires.
	MaxAttemptsPerQuestion int `json:"max_attempts_per_question"`

	// Percentage of current-topic questions that must be correct to pass.
	PassThreshold float64 `json:"pass_threshold"`
}

func DefaultSettings() *Settings {
	return &Settings{
		MaxQuestions: 10,
		Adjustment:   AdjustModerate,
		Scoring: ScoringRules{
			CorrectPoints:    10,
			IncorrectPenalty: 2,
			TimeBonus:        5,
			HintPenalty:      1,
		},
		HintThresholds: HintThresholds{
			LowAbility:    0,
			MediumAbility: 1,
			HighAbility:   2,
		},
		EasyBandMax: 0.4,
		HardBandMin: 0.7,
		StepBase: map[DifficultyAdjustment]float64{
			AdjustConservative: 0.05,
			AdjustModerate:     0.08,
			AdjustAggressive:   0.12,
		},
		CorrectWeights: map[models.Difficulty]float64{
			models.DifficultyEasy:   0.4,
			models.DifficultyMedium: 0.7,
			models.DifficultyHard:   1.0,
		},
		IncorrectWeights: map[models.Difficulty]float64{
			models.DifficultyEasy:   1.0,
			models.DifficultyMedium: 0.7,
			models.DifficultyHard:   0.4,
		},
		Distribution: map[models.Difficulty]float64{
			models.DifficultyEasy:   0.3,
			models.DifficultyMedium: 0.4,
			models.DifficultyHard:   0.3,
		},
		RemediationStreak:      3,
		WeakTopicClearStreak:   2,
		MaxAttemptsPerQuestion: 3,
		PassThreshold:          75,
	}
}

// stepBase returns the ability step for the configured adjustment mode.
func (s *Settings) stepBase() float64 {
	if v, ok := s.StepBase[s.Adjustment]; ok {
		return v
	}
	return s.StepBase[AdjustModerate]
}

// remediationStreak is the wrong streak that triggers a weak-topic question.
func (s *Settings) remediationStreak() int {
	if s.Adjustment == AdjustConservative && s.RemediationStreak > 1 {
		return s.RemediationStreak - 1
	}
	return s.RemediationStreak
}
