package entities

// OptionLabels are the button labels for answer positions.
var OptionLabels = []string{"A", "B", "C", "D"}

// MaxDistractors is the number of wrong options drawn for a question.
const MaxDistractors = 3

// Question is the multiple-choice question of a single round.
type Question struct {
	Word          string   // word being asked
	CorrectAnswer string   // meaning of Word
	Distractors   []string // wrong meanings, at most MaxDistractors
	Options       []string // display order, fixed for the life of the round
	CorrectIndex  int      // position of CorrectAnswer in Options
}

// OptionLabel returns the display label for option position i.
func OptionLabel(i int) string {
	if i >= 0 && i < len(OptionLabels) {
		return OptionLabels[i]
	}
	return "?"
}
