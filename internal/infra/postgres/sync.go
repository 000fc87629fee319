package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/uptrace/bun"

	"learn-activity/internal/content"
	"learn-activity/internal/domain"
)

// Syncer reconciles the authored weekly content into the database. Lessons
// and quizzes are upserted by their stable keys; question/answer children are
// deleted and reinserted per quiz so edits never leave orphaned rows.
type Syncer struct {
	db    *bun.DB
	rules domain.RewardRules
}

func NewSyncer(db *bun.DB, rules domain.RewardRules) *Syncer {
	return &Syncer{db: db, rules: rules}
}

// Sync runs the whole reconciliation in one transaction. It is idempotent.
func (s *Syncer) Sync(ctx context.Context, week content.Week) error {
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, lesson := range week.Lessons {
			lessonID, err := s.syncLesson(ctx, tx, lesson)
			if err != nil {
				return fmt.Errorf("sync lesson %s: %w", lesson.Key, err)
			}

			quiz, ok := week.Quizzes[lesson.Key]
			if !ok {
				continue
			}
			if err := s.syncQuiz(ctx, tx, lessonID, quiz); err != nil {
				return fmt.Errorf("sync quiz %s: %w", lesson.Key, err)
			}
			log.Printf("synced lesson %s (%d questions)", lesson.Key, len(quiz.Questions))
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("content sync complete: week %d, %s", week.Number, week.Theme)
	return nil
}

func (s *Syncer) syncLesson(ctx context.Context, tx bun.Tx, lesson content.LessonDef) (int64, error) {
	var lessonID int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO lessons
		   (lesson_key, title, description, content, content_type, media_path, duration, order_index, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, TRUE)
		 ON CONFLICT (lesson_key) DO UPDATE
		 SET title = EXCLUDED.title,
		     description = EXCLUDED.description,
		     content = EXCLUDED.content,
		     content_type = EXCLUDED.content_type,
		     media_path = EXCLUDED.media_path,
		     duration = EXCLUDED.duration,
		     order_index = EXCLUDED.order_index,
		     is_active = TRUE,
		     updated_at = now()
		 RETURNING id`,
		lesson.Key, lesson.Title, lesson.Description, lesson.Content,
		lesson.ContentType, lesson.MediaPath, lesson.Duration, lesson.OrderIndex).
		Scan(&lessonID)
	return lessonID, err
}

func (s *Syncer) syncQuiz(ctx context.Context, tx bun.Tx, lessonID int64, quiz content.QuizDef) error {
	passingScore := quiz.PassingScore
	if passingScore == 0 {
		passingScore = s.rules.PassingScore
	}

	var quizID int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO quizzes (lesson_id, title, passing_score, max_attempts)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (lesson_id) DO UPDATE
		 SET title = EXCLUDED.title,
		     passing_score = EXCLUDED.passing_score,
		     max_attempts = EXCLUDED.max_attempts,
		     updated_at = now()
		 RETURNING id`,
		lessonID, quiz.Title, passingScore, s.rules.MaxAttempts).
		Scan(&quizID)
	if err != nil {
		return fmt.Errorf("upsert quiz: %w", err)
	}

	// Replace the question/answer children wholesale.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM quiz_answers
		 WHERE question_id IN (SELECT id FROM quiz_questions WHERE quiz_id = ?)`, quizID); err != nil {
		return fmt.Errorf("clear answers: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM quiz_questions WHERE quiz_id = ?`, quizID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}

	for i, question := range quiz.Questions {
		var questionID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO quiz_questions (quiz_id, question_key, question_text, order_index)
			 VALUES (?, ?, ?, ?)
			 RETURNING id`,
			quizID, question.Key, question.Text, i+1).
			Scan(&questionID)
		if err != nil {
			return fmt.Errorf("insert question %s: %w", question.Key, err)
		}

		for j, option := range question.Options {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO quiz_answers (question_id, answer_key, answer_text, is_correct, order_index)
				 VALUES (?, ?, ?, ?, ?)`,
				questionID, option.Key, option.Text, option.Key == question.Correct, j+1); err != nil {
				return fmt.Errorf("insert answer %s/%s: %w", question.Key, option.Key, err)
			}
		}
	}
	return nil
}
