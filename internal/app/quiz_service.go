package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"learn-activity/internal/domain"
)

// ContentRepository loads lesson and quiz content (from cache/backing store).
type ContentRepository interface {
	Lessons(ctx context.Context) ([]domain.Lesson, error)
	QuizByLesson(ctx context.Context, lessonKey string) (domain.Quiz, error)
}

// AttemptStore persists scored submissions.
type AttemptStore interface {
	AttemptCount(ctx context.Context, userID, quizID int64) (int, error)
	// RecordSubmission writes the attempt row and, for passing attempts, the
	// completion/progress/points upserts as one atomic unit. The ordinal is
	// recomputed inside the transaction; the recorded attempt number is
	// returned. ErrAttemptsExceeded is returned without writing anything when
	// the recomputed ordinal would pass maxAttempts.
	RecordSubmission(ctx context.Context, attempt domain.Attempt, points, maxAttempts int) (int, error)
}

// AttemptLock is the advisory single-flight marker per (user, quiz). It
// discourages a second tab from starting the same quiz; it is not a
// correctness boundary.
type AttemptLock interface {
	// Acquire returns false when another session already holds the marker.
	Acquire(ctx context.Context, userID, quizID int64) (bool, error)
	Release(ctx context.Context, userID, quizID int64) error
}

// QuizContext is the per-user metadata served alongside quiz questions.
type QuizContext struct {
	AttemptNumber int
	PassingScore  int
	MaxAttempts   int
	RepReward     int
	ActiveAttempt bool
}

// QuizService is the scoring engine: it serves quiz content and turns
// submitted answer maps into persisted, point-awarding attempts.
type QuizService struct {
	content  ContentRepository
	attempts AttemptStore
	lock     AttemptLock
	rules    domain.RewardRules
	now      func() time.Time
}

func NewQuizService(content ContentRepository, attempts AttemptStore, lock AttemptLock, rules domain.RewardRules) *QuizService {
	return &QuizService{
		content:  content,
		attempts: attempts,
		lock:     lock,
		rules:    rules,
		now:      time.Now,
	}
}

// Lessons lists the active lessons in display order.
func (s *QuizService) Lessons(ctx context.Context) ([]domain.Lesson, error) {
	return s.content.Lessons(ctx)
}

// Rules exposes the active reward configuration.
func (s *QuizService) Rules() domain.RewardRules {
	return s.rules
}

// QuizForLesson resolves the quiz and the requesting user's attempt context.
// The caller is responsible for stripping correct-answer markers before the
// quiz leaves the server.
func (s *QuizService) QuizForLesson(ctx context.Context, user domain.User, lessonKey string) (domain.Quiz, QuizContext, error) {
	quiz, err := s.content.QuizByLesson(ctx, lessonKey)
	if err != nil {
		return domain.Quiz{}, QuizContext{}, err
	}

	count, err := s.attempts.AttemptCount(ctx, user.ID, quiz.ID)
	if err != nil {
		return domain.Quiz{}, QuizContext{}, fmt.Errorf("count attempts: %w", err)
	}

	qc := QuizContext{
		AttemptNumber: count + 1,
		PassingScore:  s.passingScore(quiz),
		MaxAttempts:   s.maxAttempts(quiz),
		RepReward:     s.rules.PassPoints,
	}

	if s.lock != nil && user.ID != 0 {
		fresh, err := s.lock.Acquire(ctx, user.ID, quiz.ID)
		if err != nil {
			// Advisory only; a lock backend outage must not block the quiz.
			log.Printf("attempt lock acquire failed for user %d quiz %d: %v", user.ID, quiz.ID, err)
		} else {
			qc.ActiveAttempt = !fresh
		}
	}

	return quiz, qc, nil
}

// Submit scores an answer map and persists the outcome.
//
// The attempts-exceeded check runs before scoring so a rejected submission
// never consumes a phantom attempt; the store re-checks inside the write
// transaction so concurrent submissions cannot slip past the limit.
func (s *QuizService) Submit(ctx context.Context, user domain.User, lessonKey string, answers domain.AnswerMap) (domain.SubmissionResult, error) {
	quiz, err := s.content.QuizByLesson(ctx, lessonKey)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	maxAttempts := s.maxAttempts(quiz)
	count, err := s.attempts.AttemptCount(ctx, user.ID, quiz.ID)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("count attempts: %w", err)
	}
	if count+1 > maxAttempts {
		return domain.SubmissionResult{}, domain.ErrAttemptsExceeded
	}

	correct, total := scoreAnswers(quiz.Questions, answers)
	percentage := domain.Percentage(correct, total)
	passingScore := s.passingScore(quiz)
	passed := percentage >= passingScore
	points := s.rules.PointsFor(percentage, passed)

	attempt := domain.Attempt{
		UserID:      user.ID,
		QuizID:      quiz.ID,
		LessonID:    quiz.LessonID,
		Answers:     answers,
		Score:       correct,
		Total:       total,
		Percentage:  percentage,
		Passed:      passed,
		CompletedAt: s.now(),
	}

	number, err := s.attempts.RecordSubmission(ctx, attempt, points, maxAttempts)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	if s.lock != nil {
		if err := s.lock.Release(ctx, user.ID, quiz.ID); err != nil {
			log.Printf("attempt lock release failed for user %d quiz %d: %v", user.ID, quiz.ID, err)
		}
	}

	return domain.SubmissionResult{
		Score:          correct,
		TotalQuestions: total,
		Percentage:     percentage,
		Passed:         passed,
		Points:         points,
		AttemptNumber:  number,
		PassingScore:   passingScore,
		Message:        resultMessage(percentage, passed, points, passingScore),
	}, nil
}

func (s *QuizService) passingScore(quiz domain.Quiz) int {
	if quiz.PassingScore > 0 {
		return quiz.PassingScore
	}
	return s.rules.PassingScore
}

func (s *QuizService) maxAttempts(quiz domain.Quiz) int {
	if quiz.MaxAttempts > 0 {
		return quiz.MaxAttempts
	}
	return s.rules.MaxAttempts
}

// scoreAnswers tallies exact matches between submitted and correct option keys.
func scoreAnswers(questions []domain.Question, answers domain.AnswerMap) (correct, total int) {
	total = len(questions)
	for _, q := range questions {
		if want := q.CorrectOption(); want != "" && answers[q.Key] == want {
			correct++
		}
	}
	return correct, total
}

func resultMessage(percentage int, passed bool, points, passingScore int) string {
	switch {
	case percentage == 100:
		return fmt.Sprintf("Perfect score! You earned %d REP points!", points)
	case passed:
		return fmt.Sprintf("Great job! You earned %d REP points!", points)
	case points > 0:
		return fmt.Sprintf("You need %d%% to pass. You earned %d REP points for trying.", passingScore, points)
	default:
		return fmt.Sprintf("You need %d%% to pass. No REP points awarded for failing.", passingScore)
	}
}
