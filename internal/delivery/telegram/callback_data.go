package telegram

import (
	"strconv"
	"strings"
)

// Callback action constants.
const (
	actionQuiz = "quiz"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// buildQuizAnswerCallback builds callback data for answering the question
// of the round identified by token.
func buildQuizAnswerCallback(token string, answerIndex int) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{token, strconv.Itoa(answerIndex)},
	}.encode()
}

// parseQuizAnswer extracts the round token and option index of a quiz answer.
func parseQuizAnswer(cd callbackData) (string, int, bool) {
	if cd.Action != actionQuiz || len(cd.Params) != 2 || cd.Params[0] == "" {
		return "", 0, false
	}

	idx, err := strconv.Atoi(cd.Params[1])
	if err != nil || idx < 0 {
		return "", 0, false
	}

	return cd.Params[0], idx, true
}
