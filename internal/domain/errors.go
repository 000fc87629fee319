package domain

import "errors"

var (
	// ErrMissingToken is returned when no activity token accompanies a request.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken covers bad signatures, malformed claims and expiry.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrLessonNotFound indicates an unknown lesson key.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrQuizNotFound indicates the lesson exists but has no quiz content.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptsExceeded is returned before scoring when the next attempt
	// ordinal would pass the configured maximum.
	ErrAttemptsExceeded = errors.New("maximum quiz attempts reached")
	// ErrAttemptConflict indicates two submissions raced for the same ordinal;
	// the losing transaction is rolled back without partial writes.
	ErrAttemptConflict = errors.New("conflicting quiz attempt")
)
