package service

import (
	"context"
	"fmt"
	"math"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

const (
	DefaultKFactor       = 32.0
	DefaultInitialRating = 1000.0
)

// RatingEngine updates Elo ratings from the outcome of a quiz session.
type RatingEngine struct {
	store   RatingStore
	k       float64
	initial float64
}

// NewRatingEngine creates a RatingEngine. Non-positive k or initial fall back
// to the defaults.
func NewRatingEngine(store RatingStore, k, initial float64) *RatingEngine {
	if k <= 0 {
		k = DefaultKFactor
	}
	if initial <= 0 {
		initial = DefaultInitialRating
	}
	return &RatingEngine{store: store, k: k, initial: initial}
}

// ExpectedScore is the logistic Elo expectation of self against other.
func ExpectedScore(self, other float64) float64 {
	return 1 / (1 + math.Pow(10, (other-self)/400))
}

// Apply runs the pairwise update for one session and persists the result.
//
// Winners are all users tied at the top score, losers everyone else. Pairs are
// processed winner by winner, loser by loser, in ranked order, and every pair
// reads the ratings left by the previous pairs. A full tie changes nothing.
// The read, the pair loop and the write happen in one store update.
// The returned ratings follow the order of scores.
func (e *RatingEngine) Apply(ctx context.Context, scores []entities.PlayerScore) ([]entities.PlayerRating, error) {
	if len(scores) == 0 {
		return nil, nil
	}

	ranked := entities.RankScores(scores)
	top := ranked[0].Score

	var winners, losers []int64
	for _, ps := range ranked {
		if ps.Score == top {
			winners = append(winners, ps.User.ID)
		} else {
			losers = append(losers, ps.User.ID)
		}
	}

	ids := make([]int64, 0, len(ranked))
	for _, ps := range ranked {
		ids = append(ids, ps.User.ID)
	}

	var updated map[int64]float64
	err := e.store.Update(ctx, ids, func(current map[int64]float64) map[int64]float64 {
		next := make(map[int64]float64, len(ids))
		for _, id := range ids {
			r, ok := current[id]
			if !ok {
				r = e.initial
			}
			next[id] = r
		}

		for _, w := range winners {
			for _, l := range losers {
				ra := next[w]
				rb := next[l]
				ea := ExpectedScore(ra, rb)
				eb := ExpectedScore(rb, ra)
				next[w] = ra + e.k*(1-ea)
				next[l] = rb + e.k*(0-eb)
			}
		}

		updated = next
		return next
	})
	if err != nil {
		return nil, fmt.Errorf("persist ratings: %w", err)
	}

	out := make([]entities.PlayerRating, 0, len(scores))
	for _, ps := range scores {
		out = append(out, entities.PlayerRating{User: ps.User, Rating: updated[ps.User.ID]})
	}
	return out, nil
}
