// Package memory provides in-process implementations of the app repositories.
// They back unit tests and the no-database dev mode of the server.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"learn-activity/internal/content"
	"learn-activity/internal/domain"
)

type userQuiz struct {
	userID int64
	quizID int64
}

type completion struct {
	lessonKey  string
	score      int
	total      int
	percentage int
	points     int
}

// Store keeps all state behind one mutex. It implements UserRepository,
// ContentRepository, AttemptStore and ProgressStore.
type Store struct {
	mu sync.Mutex

	nextUserID int64
	users      map[string]*domain.User

	lessons     []domain.Lesson
	quizzes     map[string]domain.Quiz // by lesson key
	lessonKeys  map[int64]string       // lesson id -> key
	attempts    map[userQuiz][]domain.Attempt
	completions map[userQuiz]completion
	progress    map[userQuiz]string // (user, lesson) -> status
	points      map[int64]int

	clock func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]*domain.User),
		quizzes:     make(map[string]domain.Quiz),
		lessonKeys:  make(map[int64]string),
		attempts:    make(map[userQuiz][]domain.Attempt),
		completions: make(map[userQuiz]completion),
		progress:    make(map[userQuiz]string),
		points:      make(map[int64]int),
		clock:       time.Now,
	}
}

// SeedWeek loads authored weekly content, assigning synthetic ids the way the
// database sync would.
func (s *Store) SeedWeek(week content.Week) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lessons = s.lessons[:0]
	s.quizzes = make(map[string]domain.Quiz)
	s.lessonKeys = make(map[int64]string)
	var lessonID, quizID, questionID int64
	for _, def := range week.Lessons {
		lessonID++
		lesson := domain.Lesson{
			ID:          lessonID,
			Key:         def.Key,
			Title:       def.Title,
			Description: def.Description,
			Content:     def.Content,
			ContentType: def.ContentType,
			MediaPath:   def.MediaPath,
			Duration:    def.Duration,
			OrderIndex:  def.OrderIndex,
		}
		s.lessons = append(s.lessons, lesson)
		s.lessonKeys[lesson.ID] = lesson.Key

		quizDef, ok := week.Quizzes[def.Key]
		if !ok {
			continue
		}
		quizID++
		quiz := domain.Quiz{
			ID:           quizID,
			LessonID:     lesson.ID,
			LessonKey:    lesson.Key,
			Title:        quizDef.Title,
			PassingScore: quizDef.PassingScore,
		}
		for i, qd := range quizDef.Questions {
			questionID++
			question := domain.Question{
				ID:         questionID,
				Key:        qd.Key,
				Text:       qd.Text,
				OrderIndex: i + 1,
			}
			for _, od := range qd.Options {
				question.Options = append(question.Options, domain.Option{
					Key:     od.Key,
					Text:    od.Text,
					Correct: od.Key == qd.Correct,
				})
			}
			quiz.Questions = append(quiz.Questions, question)
		}
		s.quizzes[lesson.Key] = quiz
	}
	sort.Slice(s.lessons, func(i, j int) bool { return s.lessons[i].OrderIndex < s.lessons[j].OrderIndex })
}

// FindOrCreate implements app.UserRepository.
func (s *Store) FindOrCreate(_ context.Context, profile domain.Profile) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[profile.DiscordID]
	if !ok {
		s.nextUserID++
		user = &domain.User{
			ID:        s.nextUserID,
			DiscordID: profile.DiscordID,
		}
		s.users[profile.DiscordID] = user
	}
	user.Username = profile.Username
	user.Avatar = profile.Avatar
	user.LastLogin = s.clock()

	out := *user
	out.RepPoints = s.points[user.ID]
	out.Level = domain.LevelFor(out.RepPoints)
	return out, nil
}

// Lessons implements app.ContentRepository.
func (s *Store) Lessons(_ context.Context) ([]domain.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Lesson, len(s.lessons))
	copy(out, s.lessons)
	return out, nil
}

// QuizByLesson implements app.ContentRepository.
func (s *Store) QuizByLesson(_ context.Context, lessonKey string) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quiz, ok := s.quizzes[lessonKey]; ok {
		return quiz, nil
	}
	for _, lesson := range s.lessons {
		if lesson.Key == lessonKey {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
	}
	return domain.Quiz{}, domain.ErrLessonNotFound
}

// AttemptCount implements app.AttemptStore.
func (s *Store) AttemptCount(_ context.Context, userID, quizID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts[userQuiz{userID, quizID}]), nil
}

// RecordSubmission implements app.AttemptStore. The whole write happens under
// one lock, mirroring the single database transaction of the Postgres store.
func (s *Store) RecordSubmission(_ context.Context, attempt domain.Attempt, points, maxAttempts int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userQuiz{attempt.UserID, attempt.QuizID}
	number := len(s.attempts[key]) + 1
	if number > maxAttempts {
		return 0, domain.ErrAttemptsExceeded
	}

	attempt.Number = number
	s.attempts[key] = append(s.attempts[key], attempt)

	if attempt.Passed {
		lessonKey := s.lessonKeys[attempt.LessonID]
		s.progress[userQuiz{attempt.UserID, attempt.LessonID}] = "completed"

		best, ok := s.completions[key]
		if !ok || attempt.Percentage > best.percentage {
			s.completions[key] = completion{
				lessonKey:  lessonKey,
				score:      attempt.Score,
				total:      attempt.Total,
				percentage: attempt.Percentage,
				points:     points,
			}
		}
	}
	// Participation points for failing attempts are credited too; only
	// completion state is gated on a pass.
	if points > 0 {
		s.points[attempt.UserID] += points
	}
	return number, nil
}

// CompletionPercentages implements app.ProgressStore.
func (s *Store) CompletionPercentages(_ context.Context, userID int64) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int)
	for key, c := range s.completions {
		if key.userID == userID {
			out[c.lessonKey] = c.percentage
		}
	}
	return out, nil
}

// AttemptCountsByLesson implements app.ProgressStore.
func (s *Store) AttemptCountsByLesson(_ context.Context, userID int64) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int)
	for key, attempts := range s.attempts {
		if key.userID != userID || len(attempts) == 0 {
			continue
		}
		out[s.lessonKeys[attempts[0].LessonID]] = len(attempts)
	}
	return out, nil
}

// UserPoints implements app.ProgressStore.
func (s *Store) UserPoints(_ context.Context, userID int64) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.points[userID]
	return total, domain.LevelFor(total), nil
}

// Leaderboard implements app.ProgressStore.
func (s *Store) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.LeaderboardEntry, 0, len(s.users))
	for _, user := range s.users {
		total := s.points[user.ID]
		entries = append(entries, domain.LeaderboardEntry{
			Username:  user.Username,
			Avatar:    user.Avatar,
			RepPoints: total,
			Level:     domain.LevelFor(total),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].RepPoints != entries[j].RepPoints {
			return entries[i].RepPoints > entries[j].RepPoints
		}
		return entries[i].Username < entries[j].Username
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// LessonStatus reports the stored progress status for tests.
func (s *Store) LessonStatus(userID, lessonID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress[userQuiz{userID, lessonID}]
}

// Attempts returns the recorded attempts for tests.
func (s *Store) Attempts(userID, quizID int64) []domain.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempts := s.attempts[userQuiz{userID, quizID}]
	out := make([]domain.Attempt, len(attempts))
	copy(out, attempts)
	return out
}
