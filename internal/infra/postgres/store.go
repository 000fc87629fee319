// Package postgres holds the database-backed repositories and the content sync.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"learn-activity/internal/domain"
)

// Store implements the app's user, attempt and progress repositories on bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// FindOrCreate resolves a verified profile to a user row. New users start with
// a zeroed points row; returning users get username/avatar/last_login
// refreshed and keep their points.
func (s *Store) FindOrCreate(ctx context.Context, profile domain.Profile) (domain.User, error) {
	var user User
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(&user).Where("discord_id = ?", profile.DiscordID).Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			user = User{
				DiscordID: profile.DiscordID,
				Username:  profile.Username,
				Avatar:    profile.Avatar,
			}
			if _, err := tx.NewInsert().Model(&user).Exec(ctx); err != nil {
				return fmt.Errorf("insert user: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_points (user_id, rep_points, level) VALUES (?, 0, 1)
				 ON CONFLICT (user_id) DO NOTHING`, user.ID); err != nil {
				return fmt.Errorf("init points: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("select user: %w", err)
		default:
			user.Username = profile.Username
			user.Avatar = profile.Avatar
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET username = ?, avatar = ?, last_login = now() WHERE id = ?`,
				profile.Username, profile.Avatar, user.ID); err != nil {
				return fmt.Errorf("refresh user: %w", err)
			}
			return nil
		}
	})
	if err != nil {
		return domain.User{}, err
	}

	points, level, err := s.UserPoints(ctx, user.ID)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:        user.ID,
		DiscordID: user.DiscordID,
		Username:  user.Username,
		Avatar:    user.Avatar,
		RepPoints: points,
		Level:     level,
		LastLogin: user.LastLogin,
	}, nil
}

// AttemptCount returns how many attempts the user has recorded for a quiz.
func (s *Store) AttemptCount(ctx context.Context, userID, quizID int64) (int, error) {
	count, err := s.db.NewSelect().Model((*QuizAttempt)(nil)).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

// RecordSubmission writes the attempt row and, on a pass, the lesson-progress,
// best-completion and points upserts in a single transaction, so a failure
// anywhere rolls back the whole submission.
//
// The ordinal is recomputed here and guarded by the unique index on
// (user_id, quiz_id, attempt_number): two racing submissions cannot both land
// on the same ordinal, and the limit check cannot be outrun.
func (s *Store) RecordSubmission(ctx context.Context, attempt domain.Attempt, points, maxAttempts int) (int, error) {
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return 0, fmt.Errorf("marshal answers: %w", err)
	}

	var number int
	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		count, err := tx.NewSelect().Model((*QuizAttempt)(nil)).
			Where("user_id = ? AND quiz_id = ?", attempt.UserID, attempt.QuizID).
			Count(ctx)
		if err != nil {
			return fmt.Errorf("count attempts: %w", err)
		}
		number = count + 1
		if number > maxAttempts {
			return domain.ErrAttemptsExceeded
		}

		row := QuizAttempt{
			UserID:        attempt.UserID,
			QuizID:        attempt.QuizID,
			LessonID:      attempt.LessonID,
			AttemptNumber: number,
			Answers:       answers,
			Score:         attempt.Score,
			Percentage:    attempt.Percentage,
			Passed:        attempt.Passed,
			CompletedAt:   attempt.CompletedAt,
		}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAttemptConflict
			}
			return fmt.Errorf("insert attempt: %w", err)
		}

		if attempt.Passed {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_lesson_progress (user_id, lesson_id, status, started_at, completed_at)
				 VALUES (?, ?, 'completed', now(), now())
				 ON CONFLICT (user_id, lesson_id) DO UPDATE
				 SET status = 'completed', completed_at = EXCLUDED.completed_at`,
				attempt.UserID, attempt.LessonID); err != nil {
				return fmt.Errorf("upsert lesson progress: %w", err)
			}

			// Best-result semantics: a later, worse attempt never downgrades the row.
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_quiz_completions
				   (user_id, quiz_id, lesson_id, score, total_questions, percentage, points_earned, completed_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, now())
				 ON CONFLICT (user_id, quiz_id) DO UPDATE
				 SET score = EXCLUDED.score,
				     total_questions = EXCLUDED.total_questions,
				     percentage = EXCLUDED.percentage,
				     points_earned = EXCLUDED.points_earned,
				     completed_at = EXCLUDED.completed_at
				 WHERE EXCLUDED.percentage > user_quiz_completions.percentage`,
				attempt.UserID, attempt.QuizID, attempt.LessonID,
				attempt.Score, attempt.Total, attempt.Percentage, points); err != nil {
				return fmt.Errorf("upsert completion: %w", err)
			}
		}

		// Nonzero points are credited even for failing attempts when the
		// participation award is configured; completion stays gated on a pass.
		if points > 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_points (user_id, rep_points, level)
				 VALUES (?, ?, (? / 100) + 1)
				 ON CONFLICT (user_id) DO UPDATE
				 SET rep_points = user_points.rep_points + EXCLUDED.rep_points,
				     level = (user_points.rep_points + EXCLUDED.rep_points) / 100 + 1,
				     updated_at = now()`,
				attempt.UserID, points, points); err != nil {
				return fmt.Errorf("upsert points: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return number, nil
}

// CompletionPercentages maps lesson keys to the user's best percentage.
func (s *Store) CompletionPercentages(ctx context.Context, userID int64) (map[string]int, error) {
	var rows []struct {
		LessonKey  string `bun:"lesson_key"`
		Percentage int    `bun:"percentage"`
	}
	err := s.db.NewRaw(
		`SELECT l.lesson_key, c.percentage
		 FROM user_quiz_completions c
		 JOIN lessons l ON l.id = c.lesson_id
		 WHERE c.user_id = ?`, userID).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.LessonKey] = row.Percentage
	}
	return out, nil
}

// AttemptCountsByLesson maps lesson keys to the user's attempt count.
func (s *Store) AttemptCountsByLesson(ctx context.Context, userID int64) (map[string]int, error) {
	var rows []struct {
		LessonKey string `bun:"lesson_key"`
		Count     int    `bun:"count"`
	}
	err := s.db.NewRaw(
		`SELECT l.lesson_key, COUNT(*) AS count
		 FROM quiz_attempts a
		 JOIN lessons l ON l.id = a.lesson_id
		 WHERE a.user_id = ?
		 GROUP BY l.lesson_key`, userID).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("load attempt counts: %w", err)
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.LessonKey] = row.Count
	}
	return out, nil
}

// UserPoints returns the accumulated points and level, zeroed for new users.
func (s *Store) UserPoints(ctx context.Context, userID int64) (int, int, error) {
	var points, level int
	err := s.db.QueryRowContext(ctx,
		`SELECT rep_points, level FROM user_points WHERE user_id = ?`, userID).
		Scan(&points, &level)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 1, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("load points: %w", err)
	}
	return points, level, nil
}

// Leaderboard returns the top scorers ordered by points.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	err := s.db.NewRaw(
		`SELECT u.username, u.avatar, p.rep_points, p.level
		 FROM user_points p
		 JOIN users u ON u.id = p.user_id
		 ORDER BY p.rep_points DESC, u.username ASC
		 LIMIT ?`, limit).Scan(ctx, &entries)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return entries, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}
