package entities

import "sync"

// SubmitResult is the outcome of a single answer submission.
type SubmitResult int

const (
	SubmitAccepted        SubmitResult = iota // first answer of the user, recorded
	SubmitAlreadyAnswered                     // user answered earlier in this round, ignored
	SubmitRoundClosed                         // window closed or unknown round, ignored
)

// Answer is one recorded choice in a ledger.
type Answer struct {
	User   User
	Choice string
}

// AnswerLedger records at most one answer per user for a single round.
// It is safe for concurrent use by many submitters.
type AnswerLedger struct {
	mu      sync.Mutex
	options []string
	answers map[int64]string
	order   []User
	closed  bool
}

// NewAnswerLedger creates an open ledger for the given display options.
func NewAnswerLedger(options []string) *AnswerLedger {
	return &AnswerLedger{
		options: append([]string(nil), options...),
		answers: make(map[int64]string),
	}
}

// Submit records the option at index for user if the user has not answered yet.
// It returns the recorded choice: the new one when accepted, the earlier one
// when the user already answered.
func (l *AnswerLedger) Submit(user User, index int) (SubmitResult, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return SubmitRoundClosed, "", nil
	}
	if index < 0 || index >= len(l.options) {
		return SubmitRoundClosed, "", ErrInvalidOption
	}

	if prev, ok := l.answers[user.ID]; ok {
		return SubmitAlreadyAnswered, prev, nil
	}

	choice := l.options[index]
	l.answers[user.ID] = choice
	l.order = append(l.order, user)

	return SubmitAccepted, choice, nil
}

// Close stops accepting answers. Closing twice is a no-op.
func (l *AnswerLedger) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// Answers returns the recorded answers in submission order.
func (l *AnswerLedger) Answers() []Answer {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Answer, 0, len(l.order))
	for _, u := range l.order {
		out = append(out, Answer{User: u, Choice: l.answers[u.ID]})
	}
	return out
}
