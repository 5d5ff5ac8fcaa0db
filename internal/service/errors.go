package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPresentationUnavailable is returned by a Notifier when the chat
	// message it renders into is gone. It only stops the countdown.
	ErrPresentationUnavailable = errors.New("presentation unavailable")
	// ErrGroupNotFound is matched by every *GroupNotFoundError.
	ErrGroupNotFound = errors.New("group not found")
	// ErrInvalidParams is returned for non-positive or oversized quiz parameters.
	ErrInvalidParams = errors.New("invalid quiz parameters")
	// ErrQuizInProgress is returned when a quiz already runs in the chat and
	// the concurrency policy rejects overlapping sessions.
	ErrQuizInProgress = errors.New("quiz already in progress")
	// ErrCountdownFailed wraps render failures other than ErrPresentationUnavailable.
	ErrCountdownFailed = errors.New("countdown failed")
	// ErrRatingsNotSaved is returned when a finished session could not
	// persist its rating updates.
	ErrRatingsNotSaved = errors.New("ratings not saved")
)

// GroupNotFoundError reports an unknown group together with the valid ones.
type GroupNotFoundError struct {
	Name  string
	Valid []string
}

func (e *GroupNotFoundError) Error() string {
	return fmt.Sprintf("group %q not found, valid groups: %s", e.Name, strings.Join(e.Valid, ", "))
}

func (e *GroupNotFoundError) Is(target error) bool {
	return target == ErrGroupNotFound
}
