package service

import (
	"fmt"
	"math"

	"github.com/Chungws/lmarena-clone/internal/models"
)

// ELO constants
const (
	DefaultInitialELO = 1500
	DefaultKFactor    = 32

	// InitialCI is the confidence width assigned before any vote lands.
	InitialCI = 200.0
)

// ELOService computes pairwise rating updates and confidence widths.
type ELOService struct {
	initialRating int
	kFactor       float64
}

func NewELOService(initialRating, kFactor int) *ELOService {
	if initialRating <= 0 {
		initialRating = DefaultInitialELO
	}
	if kFactor <= 0 {
		kFactor = DefaultKFactor
	}
	return &ELOService{
		initialRating: initialRating,
		kFactor:       float64(kFactor),
	}
}

func (s *ELOService) InitialRating() int {
	return s.initialRating
}

// ExpectedScore returns the probability-like expected score of A against B:
// E_A = 1 / (1 + 10^((R_B - R_A) / 400)).
func (s *ELOService) ExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/400.0))
}

// NewRatings computes both sides' updated ratings from the same vote.
// Both updates read the pre-update ratings, never a half-updated pair.
func (s *ELOService) NewRatings(leftRating, rightRating int, leftScore, rightScore float64) (newLeft, newRight int) {
	expectedLeft := s.ExpectedScore(float64(leftRating), float64(rightRating))
	expectedRight := 1.0 - expectedLeft

	newLeft = int(math.Round(float64(leftRating) + s.kFactor*(leftScore-expectedLeft)))
	newRight = int(math.Round(float64(rightRating) + s.kFactor*(rightScore-expectedRight)))

	return newLeft, newRight
}

// ScoreForVote maps a vote choice to the (left, right) actual scores.
// both_bad is treated as a tie for rating purposes; it is tallied into
// tie_count by the aggregator.
func ScoreForVote(choice models.VoteChoice) (leftScore, rightScore float64, err error) {
	switch choice {
	case models.VoteLeftBetter:
		return 1.0, 0.0, nil
	case models.VoteRightBetter:
		return 0.0, 1.0, nil
	case models.VoteTie, models.VoteBothBad:
		return 0.5, 0.5, nil
	default:
		return 0, 0, fmt.Errorf("%w: %s", ErrInvalidVote, choice)
	}
}

// ConfidenceInterval returns the 95% confidence width for a model with the
// given vote count, using the Bradley-Terry standard error 400/sqrt(n).
// Wide (200.0) at zero votes, narrowing monotonically as votes accumulate.
func ConfidenceInterval(voteCount int) float64 {
	if voteCount <= 0 {
		return InitialCI
	}

	se := 400.0 / math.Sqrt(float64(voteCount))
	ci := 1.96 * se

	return math.Round(ci*10) / 10
}
