package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"learn-activity/internal/app"
	"learn-activity/internal/domain"
)

// ContentCache caches lesson and quiz content with a TTL to avoid hitting the
// database on every request. Content only changes on weekly sync, so a short
// TTL is plenty.
type ContentCache struct {
	inner app.ContentRepository
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu      sync.RWMutex
	lessons *cachedLessons
	quizzes map[string]cachedQuiz
}

type cachedLessons struct {
	lessons   []domain.Lesson
	expiresAt time.Time
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewContentCache(inner app.ContentRepository, ttl time.Duration) *ContentCache {
	return &ContentCache{
		inner:   inner,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		quizzes: make(map[string]cachedQuiz),
	}
}

func (c *ContentCache) Lessons(ctx context.Context) ([]domain.Lesson, error) {
	now := c.clock()

	c.mu.RLock()
	if c.lessons != nil && c.lessons.expiresAt.After(now) {
		lessons := c.lessons.lessons
		c.mu.RUnlock()
		return lessons, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("lessons", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.lessons != nil && c.lessons.expiresAt.After(now) {
			lessons := c.lessons.lessons
			c.mu.RUnlock()
			return lessons, nil
		}
		c.mu.RUnlock()

		lessons, err := c.inner.Lessons(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.lessons = &cachedLessons{lessons: lessons, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return lessons, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Lesson), nil
}

func (c *ContentCache) QuizByLesson(ctx context.Context, lessonKey string) (domain.Quiz, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.quizzes[lessonKey]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.quiz, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("quiz:"+lessonKey, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.quizzes[lessonKey]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.quiz, nil
		}
		c.mu.RUnlock()

		quiz, err := c.inner.QuizByLesson(ctx, lessonKey)
		if err != nil {
			return domain.Quiz{}, err
		}
		c.mu.Lock()
		c.quizzes[lessonKey] = cachedQuiz{quiz: quiz, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate drops all cached content; the sync step calls it after a reload.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.lessons = nil
	c.quizzes = make(map[string]cachedQuiz)
	c.mu.Unlock()
}

func (c *ContentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
