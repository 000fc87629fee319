package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"learn-activity/internal/app"
	"learn-activity/internal/domain"
)

// Handler wires the app services into the REST surface consumed by the
// activity dashboard.
type Handler struct {
	identity *app.IdentityService
	quizzes  *app.QuizService
	progress *app.ProgressService
	feed     *app.LeaderboardFeed

	leaderboardLimit int
	allowedOrigins   []string
}

func NewHandler(identity *app.IdentityService, quizzes *app.QuizService, progress *app.ProgressService, feed *app.LeaderboardFeed, leaderboardLimit int, allowedOrigins []string) *Handler {
	return &Handler{
		identity:         identity,
		quizzes:          quizzes,
		progress:         progress,
		feed:             feed,
		leaderboardLimit: leaderboardLimit,
		allowedOrigins:   allowedOrigins,
	}
}

// Router builds the full route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware(h.allowedOrigins))

	api := r.PathPrefix("/api").Subrouter()
	api.Use(loggingMiddleware)
	api.HandleFunc("/verify-token", h.verifyToken).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/lessons", h.lessons).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/quiz/submit", h.submitQuiz).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/quiz/{lessonId}", h.quiz).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/user/progress", h.userProgress).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/leaderboard", h.leaderboard).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/config", h.config).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/health", h.health).Methods(http.MethodGet, http.MethodOptions)

	if h.feed != nil {
		feedHandler := NewFeedHandler(h.feed)
		r.HandleFunc("/ws/leaderboard", feedHandler.ServeWS)
	}
	return r
}

// authenticate resolves the bearer token to a user. Optional callers ignore
// the error and proceed anonymously.
func (h *Handler) authenticate(r *http.Request) (domain.User, error) {
	return h.identity.VerifyToken(r.Context(), bearerToken(r))
}

func (h *Handler) verifyToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Token == "" {
		// The dashboard posts the token in the body; fall back to the header.
		body.Token = bearerToken(r)
	}

	user, err := h.identity.VerifyToken(r.Context(), body.Token)
	if err != nil {
		if errors.Is(err, domain.ErrMissingToken) {
			respondError(w, http.StatusUnauthorized, "No token provided")
			return
		}
		if errors.Is(err, domain.ErrInvalidToken) {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		log.Printf("verify token: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type lessonPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ContentType string `json:"contentType"`
	MediaPath   string `json:"mediaPath,omitempty"`
	Duration    string `json:"duration"`
	RepReward   int    `json:"repReward"`
	Completed   *bool  `json:"completed,omitempty"`
}

func (h *Handler) lessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.quizzes.Lessons(r.Context())
	if err != nil {
		log.Printf("list lessons: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load lessons")
		return
	}

	// Progress is attached only for authenticated callers.
	var completed map[string]bool
	if user, err := h.authenticate(r); err == nil {
		if view, err := h.progress.Progress(r.Context(), user.ID); err == nil {
			completed = make(map[string]bool, len(view.CompletedQuizzes))
			for _, key := range view.CompletedQuizzes {
				completed[key] = true
			}
		}
	}

	rules := h.quizzes.Rules()
	payload := make([]lessonPayload, 0, len(lessons))
	for _, lesson := range lessons {
		item := lessonPayload{
			ID:          lesson.Key,
			Title:       lesson.Title,
			Description: lesson.Description,
			ContentType: lesson.ContentType,
			MediaPath:   lesson.MediaPath,
			Duration:    lesson.Duration,
			RepReward:   rules.PassPoints,
		}
		if completed != nil {
			done := completed[lesson.Key]
			item.Completed = &done
		}
		payload = append(payload, item)
	}
	respondJSON(w, http.StatusOK, payload)
}

type optionPayload struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type questionPayload struct {
	ID       string          `json:"id"`
	Question string          `json:"question"`
	Options  []optionPayload `json:"options"`
}

func (h *Handler) quiz(w http.ResponseWriter, r *http.Request) {
	lessonKey := mux.Vars(r)["lessonId"]

	// Anonymous callers still get the questions, with default context.
	user, _ := h.authenticate(r)

	quiz, qc, err := h.quizzes.QuizForLesson(r.Context(), user, lessonKey)
	if err != nil {
		h.respondQuizError(w, err)
		return
	}

	// Correct-answer markers never leave the server.
	questions := make([]questionPayload, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		item := questionPayload{ID: q.Key, Question: q.Text}
		for _, opt := range q.Options {
			item.Options = append(item.Options, optionPayload{ID: opt.Key, Text: opt.Text})
		}
		questions = append(questions, item)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"questions":     questions,
		"lessonTitle":   quiz.Title,
		"attemptNumber": qc.AttemptNumber,
		"passingScore":  qc.PassingScore,
		"maxAttempts":   qc.MaxAttempts,
		"repReward":     qc.RepReward,
		"activeAttempt": qc.ActiveAttempt,
	})
}

func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	user, err := h.authenticate(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var body struct {
		LessonID string           `json:"lessonId"`
		Answers  domain.AnswerMap `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.LessonID == "" || body.Answers == nil {
		respondError(w, http.StatusBadRequest, "lessonId and answers are required")
		return
	}

	result, err := h.quizzes.Submit(r.Context(), user, body.LessonID, body.Answers)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLessonNotFound), errors.Is(err, domain.ErrQuizNotFound):
			respondError(w, http.StatusNotFound, "Quiz not found")
		case errors.Is(err, domain.ErrAttemptsExceeded):
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":       "Maximum attempts reached",
				"maxAttempts": h.quizzes.Rules().MaxAttempts,
			})
		case errors.Is(err, domain.ErrAttemptConflict):
			respondError(w, http.StatusConflict, "A submission for this quiz is already being processed")
		default:
			log.Printf("submit quiz %s for user %d: %v", body.LessonID, user.ID, err)
			respondError(w, http.StatusInternalServerError, "Failed to submit quiz")
		}
		return
	}

	if result.Passed && h.feed != nil {
		if err := h.feed.Publish(r.Context()); err != nil {
			log.Printf("publish leaderboard: %v", err)
		}
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) userProgress(w http.ResponseWriter, r *http.Request) {
	user, err := h.authenticate(r)
	if err != nil {
		// Unauthenticated callers get an empty view, not an error.
		respondJSON(w, http.StatusOK, domain.ProgressView{
			CompletedQuizzes: []string{},
			FailedQuizzes:    []string{},
			AttemptCounts:    map[string]int{},
			Level:            1,
		})
		return
	}

	view, err := h.progress.Progress(r.Context(), user.ID)
	if err != nil {
		log.Printf("load progress for user %d: %v", user.ID, err)
		respondError(w, http.StatusInternalServerError, "Failed to load progress")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.progress.Leaderboard(r.Context(), h.leaderboardLimit)
	if err != nil {
		log.Printf("load leaderboard: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load leaderboard")
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *Handler) config(w http.ResponseWriter, r *http.Request) {
	rules := h.quizzes.Rules()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"passingScore": rules.PassingScore,
		"maxAttempts":  rules.MaxAttempts,
		"repPoints": map[string]int{
			"pass":    rules.PassPoints,
			"fail":    rules.FailPoints,
			"perfect": rules.PerfectPoints,
		},
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	rules := h.quizzes.Rules()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"config": map[string]int{
			"passingScore": rules.PassingScore,
			"maxAttempts":  rules.MaxAttempts,
		},
	})
}

func (h *Handler) respondQuizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrLessonNotFound), errors.Is(err, domain.ErrQuizNotFound):
		respondError(w, http.StatusNotFound, "Quiz not found")
	default:
		log.Printf("load quiz: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load quiz")
	}
}
