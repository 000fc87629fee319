package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learn-activity/internal/domain"
)

// ContentLoader serves the read-mostly lesson/quiz content from Postgres.
// It sits behind the in-memory content cache.
type ContentLoader struct {
	pool *pgxpool.Pool
}

func NewContentLoader(pool *pgxpool.Pool) *ContentLoader {
	return &ContentLoader{pool: pool}
}

// Lessons returns the active lessons in display order.
func (l *ContentLoader) Lessons(ctx context.Context) ([]domain.Lesson, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, lesson_key, title, description, content, content_type, media_path, duration, order_index
		 FROM lessons
		 WHERE is_active
		 ORDER BY order_index`)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []domain.Lesson
	for rows.Next() {
		var lesson domain.Lesson
		if err := rows.Scan(&lesson.ID, &lesson.Key, &lesson.Title, &lesson.Description,
			&lesson.Content, &lesson.ContentType, &lesson.MediaPath, &lesson.Duration,
			&lesson.OrderIndex); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// QuizByLesson loads the full quiz for a lesson key, correct markers included.
func (l *ContentLoader) QuizByLesson(ctx context.Context, lessonKey string) (domain.Quiz, error) {
	var (
		quiz         domain.Quiz
		quizID       sql.NullInt64
		title        sql.NullString
		passingScore sql.NullInt32
		maxAttempts  sql.NullInt32
	)
	err := l.pool.QueryRow(ctx,
		`SELECT l.id, q.id, q.title, q.passing_score, q.max_attempts
		 FROM lessons l
		 LEFT JOIN quizzes q ON q.lesson_id = l.id
		 WHERE l.lesson_key = $1 AND l.is_active`, lessonKey).
		Scan(&quiz.LessonID, &quizID, &title, &passingScore, &maxAttempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrLessonNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if !quizID.Valid {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}

	quiz.ID = quizID.Int64
	quiz.LessonKey = lessonKey
	quiz.Title = title.String
	quiz.PassingScore = int(passingScore.Int32)
	quiz.MaxAttempts = int(maxAttempts.Int32)

	questions, err := l.questions(ctx, quiz.ID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.Questions = questions
	return quiz, nil
}

func (l *ContentLoader) questions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, question_key, question_text, order_index
		 FROM quiz_questions
		 WHERE quiz_id = $1
		 ORDER BY order_index`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	index := make(map[int64]int)
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Key, &q.Text, &q.OrderIndex); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	answerRows, err := l.pool.Query(ctx,
		`SELECT a.question_id, a.answer_key, a.answer_text, a.is_correct
		 FROM quiz_answers a
		 JOIN quiz_questions qq ON qq.id = a.question_id
		 WHERE qq.quiz_id = $1
		 ORDER BY qq.order_index, a.order_index`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer answerRows.Close()

	for answerRows.Next() {
		var (
			questionID int64
			opt        domain.Option
		)
		if err := answerRows.Scan(&questionID, &opt.Key, &opt.Text, &opt.Correct); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if i, ok := index[questionID]; ok {
			questions[i].Options = append(questions[i].Options, opt)
		}
	}
	if err := answerRows.Err(); err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	return questions, nil
}
