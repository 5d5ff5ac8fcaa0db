package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

// ErrCorruptRecord marks a rating file line that could not be parsed.
var ErrCorruptRecord = errors.New("corrupt rating record")

// RatingStore keeps user ratings in memory and persists them to a flat CSV
// file with one "user_id,rating" record per line.
type RatingStore struct {
	mu      sync.RWMutex
	path    string
	ratings map[int64]float64
	logger  *zap.Logger
}

// NewRatingStore loads ratings from path, creating an empty file if it does
// not exist. Malformed records are logged and skipped.
func NewRatingStore(path string, logger *zap.Logger) (*RatingStore, error) {
	s := &RatingStore{
		path:    path,
		ratings: make(map[int64]float64),
		logger:  logger,
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *RatingStore) load() error {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(s.path, nil, 0o644); err != nil {
			return fmt.Errorf("create ratings file: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("open ratings file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			s.logger.Warn("skipping corrupt rating record",
				zap.String("path", s.path),
				zap.Int("line", parseErr.Line),
				zap.Error(err),
			)
			continue
		}
		if err != nil {
			return fmt.Errorf("read ratings file: %w", err)
		}

		line, _ := r.FieldPos(0)

		userID, rating, err := parseRecord(rec)
		if err != nil {
			s.logger.Warn("skipping corrupt rating record",
				zap.String("path", s.path),
				zap.Int("line", line),
				zap.Error(err),
			)
			continue
		}

		s.ratings[userID] = rating
	}

	s.logger.Info("ratings loaded",
		zap.String("path", s.path),
		zap.Int("users", len(s.ratings)),
	)

	return nil
}

func parseRecord(rec []string) (int64, float64, error) {
	if len(rec) < 2 {
		return 0, 0, fmt.Errorf("%w: expected 2 fields, got %d", ErrCorruptRecord, len(rec))
	}

	userID, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: user id: %v", ErrCorruptRecord, err)
	}

	rating, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: rating: %v", ErrCorruptRecord, err)
	}
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return 0, 0, fmt.Errorf("%w: rating is not finite", ErrCorruptRecord)
	}

	return userID, rating, nil
}

// Update reads the stored ratings of ids, passes them to fn and persists
// the map fn returns, all under one lock, so concurrent sessions sharing a
// user never lose each other's changes. Users without a rating are absent
// from the map fn receives. If writing fails the in-memory ratings are
// restored, so the store only reflects updates that were persisted.
func (s *RatingStore) Update(
	ctx context.Context,
	ids []int64,
	fn func(current map[int64]float64) map[int64]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[int64]float64, len(ids))
	for _, id := range ids {
		if r, ok := s.ratings[id]; ok {
			current[id] = r
		}
	}

	updates := fn(current)

	type prevValue struct {
		rating float64
		ok     bool
	}
	prev := make(map[int64]prevValue, len(updates))
	for id, r := range updates {
		old, ok := s.ratings[id]
		prev[id] = prevValue{rating: old, ok: ok}
		s.ratings[id] = r
	}

	if err := s.saveLocked(); err != nil {
		for id, p := range prev {
			if p.ok {
				s.ratings[id] = p.rating
			} else {
				delete(s.ratings, id)
			}
		}
		return err
	}

	return nil
}

// Top returns up to n ratings, highest first. Ties are ordered by user ID.
func (s *RatingStore) Top(n int) []entities.PlayerRating {
	s.mu.RLock()
	out := make([]entities.PlayerRating, 0, len(s.ratings))
	for id, r := range s.ratings {
		out = append(out, entities.PlayerRating{User: entities.User{ID: id}, Rating: r})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].User.ID < out[j].User.ID
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// saveLocked rewrites the whole file through a temp file and rename.
func (s *RatingStore) saveLocked() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ratings file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	ids := make([]int64, 0, len(s.ratings))
	for id := range s.ratings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	w := csv.NewWriter(tmp)
	for _, id := range ids {
		record := []string{
			strconv.FormatInt(id, 10),
			strconv.FormatFloat(roundRating(s.ratings[id]), 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write ratings: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush ratings: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ratings file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace ratings file: %w", err)
	}

	return nil
}

func roundRating(r float64) float64 {
	return math.Round(r*100) / 100
}
