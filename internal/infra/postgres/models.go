package postgres

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        int64     `bun:"id,pk,autoincrement"`
	DiscordID string    `bun:"discord_id,notnull"`
	Username  string    `bun:"username,notnull"`
	Avatar    string    `bun:"avatar"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	LastLogin time.Time `bun:"last_login,nullzero"`
}

type Lesson struct {
	bun.BaseModel `bun:"table:lessons"`

	ID          int64     `bun:"id,pk,autoincrement"`
	LessonKey   string    `bun:"lesson_key,notnull"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description"`
	Content     string    `bun:"content"`
	ContentType string    `bun:"content_type"`
	MediaPath   string    `bun:"media_path"`
	Duration    string    `bun:"duration"`
	OrderIndex  int       `bun:"order_index"`
	IsActive    bool      `bun:"is_active"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type Quiz struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID           int64     `bun:"id,pk,autoincrement"`
	LessonID     int64     `bun:"lesson_id,notnull"`
	Title        string    `bun:"title"`
	PassingScore int       `bun:"passing_score"`
	MaxAttempts  int       `bun:"max_attempts"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type QuizQuestion struct {
	bun.BaseModel `bun:"table:quiz_questions"`

	ID          int64  `bun:"id,pk,autoincrement"`
	QuizID      int64  `bun:"quiz_id,notnull"`
	QuestionKey string `bun:"question_key,notnull"`
	Text        string `bun:"question_text,notnull"`
	OrderIndex  int    `bun:"order_index"`
}

type QuizAnswer struct {
	bun.BaseModel `bun:"table:quiz_answers"`

	ID         int64  `bun:"id,pk,autoincrement"`
	QuestionID int64  `bun:"question_id,notnull"`
	AnswerKey  string `bun:"answer_key,notnull"`
	Text       string `bun:"answer_text,notnull"`
	IsCorrect  bool   `bun:"is_correct"`
	OrderIndex int    `bun:"order_index"`
}

type QuizAttempt struct {
	bun.BaseModel `bun:"table:quiz_attempts"`

	ID            int64           `bun:"id,pk,autoincrement"`
	UserID        int64           `bun:"user_id,notnull"`
	QuizID        int64           `bun:"quiz_id,notnull"`
	LessonID      int64           `bun:"lesson_id,notnull"`
	AttemptNumber int             `bun:"attempt_number,notnull"`
	Answers       json.RawMessage `bun:"answers,type:jsonb"`
	Score         int             `bun:"score"`
	Percentage    int             `bun:"percentage"`
	Passed        bool            `bun:"passed"`
	CompletedAt   time.Time       `bun:"completed_at,nullzero,notnull,default:current_timestamp"`
}
