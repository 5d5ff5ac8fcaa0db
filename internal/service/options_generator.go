package service

import (
	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

// OptionGenerator generates multiple choice options for quiz questions.
type OptionGenerator struct {
	rng *lockedRand
}

// newOptionGenerator creates a new option generator.
func newOptionGenerator(rng *lockedRand) *OptionGenerator {
	return &OptionGenerator{rng: rng}
}

// GenerateOptions draws up to 3 distractors from pool, which must not contain
// the correct answer, and shuffles them together with it.
// Returns: options in display order, the distractors and the index of the correct answer.
func (g *OptionGenerator) GenerateOptions(correct string, pool []string) ([]string, []string, int) {
	distractors := g.rng.sample(pool, entities.MaxDistractors)

	options := make([]string, 0, len(distractors)+1)
	options = append(options, distractors...)
	options = append(options, correct)

	g.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	// Distractors never equal the correct answer by value.
	correctIndex := 0
	for i, opt := range options {
		if opt == correct {
			correctIndex = i
			break
		}
	}

	return options, distractors, correctIndex
}
