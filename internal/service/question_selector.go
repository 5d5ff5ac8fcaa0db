package service

import (
	"errors"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

// ErrNoWords is returned when a question is requested from an empty word list.
var ErrNoWords = errors.New("no words to ask")

// QuestionSelector picks the word of each round and builds its options.
type QuestionSelector struct {
	rng     *lockedRand
	options *OptionGenerator
}

// NewQuestionSelector creates a QuestionSelector seeded from the clock.
func NewQuestionSelector() *QuestionSelector {
	return newQuestionSelector(newTimeSeededRand())
}

// NewSeededQuestionSelector creates a QuestionSelector with a fixed seed.
func NewSeededQuestionSelector(seed int64) *QuestionSelector {
	return newQuestionSelector(newLockedRand(seed))
}

func newQuestionSelector(rng *lockedRand) *QuestionSelector {
	return &QuestionSelector{
		rng:     rng,
		options: newOptionGenerator(rng),
	}
}

// SelectQuestion picks a word from source that is not in used, falling back
// to the whole source (repeats allowed) once every word was asked. The chosen
// word is added to used.
func (s *QuestionSelector) SelectQuestion(
	source []entities.WordEntry,
	used map[string]struct{},
	distractors DistractorSource,
) (entities.Question, error) {
	if len(source) == 0 {
		return entities.Question{}, ErrNoWords
	}

	available := make([]entities.WordEntry, 0, len(source))
	for _, e := range source {
		if _, ok := used[e.Word]; !ok {
			available = append(available, e)
		}
	}
	if len(available) == 0 {
		available = source
	}

	entry := available[s.rng.Intn(len(available))]
	used[entry.Word] = struct{}{}

	options, wrong, correctIndex := s.options.GenerateOptions(entry.Meaning, distractors.DistractorPool(entry.Meaning))

	return entities.Question{
		Word:          entry.Word,
		CorrectAnswer: entry.Meaning,
		Distractors:   wrong,
		Options:       options,
		CorrectIndex:  correctIndex,
	}, nil
}
