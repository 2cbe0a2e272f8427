package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/quizhub/progress-hub/internal/application/command"
	"github.com/quizhub/progress-hub/internal/application/query"
	"github.com/quizhub/progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth - liveness: процесс жив.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady - readiness: хранилище событий отвечает.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			writeJSONError(w, http.StatusServiceUnavailable, "store_unavailable", "event store unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE SIDE
// ══════════════════════════════════════════════════════════════════════════════

// recordAnswerRequest - тело POST /api/v1/answers.
type recordAnswerRequest struct {
	StudentID           string    `json:"student_id"`
	QuestionID          string    `json:"question_id"`
	Subject             string    `json:"subject"`
	Difficulty          string    `json:"difficulty"`
	Correct             bool      `json:"correct"`
	ResponseTimeSeconds float64   `json:"response_time_seconds"`
	AttemptNumber       int       `json:"attempt_number"`
	AnsweredAt          time.Time `json:"answered_at"`
}

func (s *Server) handleRecordAnswer(w http.ResponseWriter, r *http.Request) {
	var req recordAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}

	result, err := s.deps.RecordAnswer.Handle(r.Context(), command.RecordAnswerCommand{
		StudentID:           req.StudentID,
		QuestionID:          req.QuestionID,
		Subject:             req.Subject,
		Difficulty:          req.Difficulty,
		Correct:             req.Correct,
		ResponseTimeSeconds: req.ResponseTimeSeconds,
		AttemptNumber:       req.AttemptNumber,
		AnsweredAt:          req.AnsweredAt,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// READ SIDE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.StudentStats.Handle(r.Context(), query.GetStudentStatsQuery{
		StudentID:  chi.URLParam(r, "id"),
		WindowDays: queryParamInt(r, "window_days", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Progress.Handle(r.Context(), query.GetProgressQuery{
		StudentID:    chi.URLParam(r, "id"),
		LookbackDays: queryParamInt(r, "lookback_days", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetGoals(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Goals.Handle(r.Context(), query.GetGoalsQuery{
		StudentID: chi.URLParam(r, "id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Recommendations.Handle(r.Context(), query.GetRecommendationsQuery{
		StudentID: chi.URLParam(r, "id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Notifications.Handle(r.Context(), query.GetNotificationsQuery{
		StudentID: chi.URLParam(r, "id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Achievements.Handle(r.Context(), query.GetAchievementsQuery{
		StudentID: chi.URLParam(r, "id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetCohortComparison(w http.ResponseWriter, r *http.Request) {
	err := s.deps.CohortCompare.Handle(r.Context(), query.GetCohortComparisonQuery{
		StudentID: chi.URLParam(r, "id"),
		CohortID:  r.URL.Query().Get("cohort_id"),
	})
	// Всегда ошибка: либо валидация, либо not_implemented.
	writeDomainError(w, err)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN
// ══════════════════════════════════════════════════════════════════════════════

// adminAuthMiddleware проверяет X-Admin-Token против bcrypt-хэша из
// конфигурации. Пустой хэш полностью выключает админ-эндпоинты.
func (s *Server) adminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.AdminTokenHash == "" {
			writeJSONError(w, http.StatusForbidden, "admin_disabled", "administrative endpoints are disabled")
			return
		}

		token := r.Header.Get("X-Admin-Token")
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing_token", "X-Admin-Token header is required")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(s.config.AdminTokenHash), []byte(token)); err != nil {
			s.log.Warn("admin auth failed", logger.String("path", r.URL.Path))
			writeJSONError(w, http.StatusUnauthorized, "invalid_token", "invalid administrative token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// resetProgressRequest - тело POST /api/v1/admin/students/{id}/reset.
type resetProgressRequest struct {
	QuestionIDs       []string `json:"question_ids,omitempty"`
	ResetAchievements bool     `json:"reset_achievements"`
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	var req resetProgressRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
			return
		}
	}

	result, err := s.deps.ResetProgress.Handle(r.Context(), command.ResetProgressCommand{
		StudentID:         chi.URLParam(r, "id"),
		QuestionIDs:       req.QuestionIDs,
		ResetAchievements: req.ResetAchievements,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// queryParamInt extracts an integer query parameter with a default value.
func queryParamInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
