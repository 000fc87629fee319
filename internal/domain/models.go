package domain

import (
	"math"
	"time"
)

// Profile carries the identity claims issued by the companion Discord bot.
type Profile struct {
	DiscordID string
	Username  string
	Avatar    string
}

// User is the internal user record resolved from a verified profile.
type User struct {
	ID        int64     `json:"-"`
	DiscordID string    `json:"userId"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	RepPoints int       `json:"repPoints"`
	Level     int       `json:"level"`
	LastLogin time.Time `json:"-"`
}

// Lesson is a content unit with a stable key; title and body rotate weekly.
type Lesson struct {
	ID          int64
	Key         string
	Title       string
	Description string
	Content     string
	ContentType string
	MediaPath   string
	Duration    string
	OrderIndex  int
}

// Option is one selectable answer for a question.
type Option struct {
	Key     string
	Text    string
	Correct bool
}

// Question is an MCQ with exactly one correct option.
type Question struct {
	ID         int64
	Key        string
	Text       string
	OrderIndex int
	Options    []Option
}

// CorrectOption returns the key of the correct option, or "" if unset.
func (q Question) CorrectOption() string {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.Key
		}
	}
	return ""
}

// Quiz holds the questions and pass/attempt thresholds for one lesson.
type Quiz struct {
	ID           int64
	LessonID     int64
	LessonKey    string
	Title        string
	PassingScore int
	MaxAttempts  int
	Questions    []Question
}

// AnswerMap maps question keys to the submitted option key. Unknown or
// missing entries count as wrong.
type AnswerMap map[string]string

// Attempt is one immutable scored submission for a (user, quiz) pair.
type Attempt struct {
	ID          int64
	UserID      int64
	QuizID      int64
	LessonID    int64
	Number      int
	Answers     AnswerMap
	Score       int
	Total       int
	Percentage  int
	Passed      bool
	CompletedAt time.Time
}

// SubmissionResult is returned to the client after a scored submission.
type SubmissionResult struct {
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	Percentage     int    `json:"percentage"`
	Passed         bool   `json:"passed"`
	Points         int    `json:"points"`
	AttemptNumber  int    `json:"attemptNumber"`
	PassingScore   int    `json:"passingScore"`
	Message        string `json:"message"`
}

// ProgressView is the derived per-user progress, recomputed on every call.
type ProgressView struct {
	CompletedQuizzes []string       `json:"completedQuizzes"`
	FailedQuizzes    []string       `json:"failedQuizzes"`
	AttemptCounts    map[string]int `json:"attemptCounts"`
	RepPoints        int            `json:"repPoints"`
	Level            int            `json:"level"`
}

// LeaderboardEntry is one row of the points leaderboard.
type LeaderboardEntry struct {
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
	RepPoints int    `json:"rep_points"`
	Level     int    `json:"level"`
}

// RewardRules are the configured scoring thresholds and point values.
type RewardRules struct {
	PassingScore  int
	MaxAttempts   int
	PassPoints    int
	FailPoints    int
	PerfectPoints int
}

// PointsFor returns the REP award for a scored submission.
func (r RewardRules) PointsFor(percentage int, passed bool) int {
	switch {
	case percentage == 100:
		return r.PerfectPoints
	case passed:
		return r.PassPoints
	default:
		return r.FailPoints
	}
}

// Percentage computes the rounded score percentage for correct/total.
func Percentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// LevelFor derives the level from an accumulated point total.
func LevelFor(totalPoints int) int {
	return totalPoints/100 + 1
}
