package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingora/lingora/internal/gate"
	"github.com/lingora/lingora/internal/storage"
)

func (s *Server) handleHealth(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleDefine looks up a short definition. The quota check runs before
// the backend call and the unit is consumed only for an uncached,
// successful lookup.
func (s *Server) handleDefine(ctx *gin.Context) {
	var req DefineRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "No word provided"})
		return
	}

	user := userKey(ctx)
	max := s.config.DefinitionsPerDay

	decision := s.gate.Check(ctx.Request.Context(), user, FeatureDefinitions, max)
	if decision != gate.Allowed {
		ctx.JSON(http.StatusOK, DefineResponse{
			Decision:  string(decision),
			Remaining: s.gate.Remaining(ctx.Request.Context(), user, FeatureDefinitions, max),
		})
		return
	}

	definition, cached, err := s.definer.Define(ctx.Request.Context(), req.Word)
	if err != nil {
		s.logger.Error().Err(err).Str("word", req.Word).Msg("Definition lookup failed")
		ctx.JSON(http.StatusBadGateway, ErrorResponse{Error: "backend_error", Message: "Error from language service"})
		return
	}

	if !cached {
		decision = s.gate.CheckAndConsume(ctx.Request.Context(), user, FeatureDefinitions, max)
		if decision != gate.Allowed {
			// Lost the last unit to a concurrent request.
			ctx.JSON(http.StatusOK, DefineResponse{
				Decision:  string(decision),
				Remaining: s.gate.Remaining(ctx.Request.Context(), user, FeatureDefinitions, max),
			})
			return
		}
	}

	ctx.JSON(http.StatusOK, DefineResponse{
		Decision:   string(gate.Allowed),
		Definition: definition,
		Cached:     cached,
		Remaining:  s.gate.Remaining(ctx.Request.Context(), user, FeatureDefinitions, max),
	})
}

// handleReview grades a writing submission. A PERFECT verdict marks the
// writing feature complete for the day, which blocks further reviews
// until rollover.
func (s *Server) handleReview(ctx *gin.Context) {
	var req ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "No text provided"})
		return
	}

	user := userKey(ctx)
	max := s.config.ReviewsPerDay

	decision := s.gate.Check(ctx.Request.Context(), user, FeatureWriting, max)
	if decision != gate.Allowed {
		ctx.JSON(http.StatusOK, ReviewResponse{
			Decision:  string(decision),
			Remaining: s.gate.Remaining(ctx.Request.Context(), user, FeatureWriting, max),
		})
		return
	}

	review, err := s.reviewer.Review(ctx.Request.Context(), req.Text)
	if err != nil {
		s.logger.Error().Err(err).Msg("Writing review failed")
		ctx.JSON(http.StatusBadGateway, ErrorResponse{Error: "backend_error", Message: "Error from language service"})
		return
	}

	decision = s.gate.CheckAndConsume(ctx.Request.Context(), user, FeatureWriting, max)
	if decision != gate.Allowed {
		ctx.JSON(http.StatusOK, ReviewResponse{
			Decision:  string(decision),
			Remaining: s.gate.Remaining(ctx.Request.Context(), user, FeatureWriting, max),
		})
		return
	}

	if review.Perfect() {
		if err := s.completion.MarkDone(ctx.Request.Context(), user, FeatureWriting); err != nil {
			s.logger.Warn().Err(err).Str("user", user).Msg("Failed to mark writing complete")
		}
	}

	ctx.JSON(http.StatusOK, ReviewResponse{
		Decision:  string(gate.Allowed),
		Status:    review.Status,
		Feedback:  review.Feedback,
		Remaining: s.gate.Remaining(ctx.Request.Context(), user, FeatureWriting, max),
	})
}

// handleGenerateIdea returns a fresh writing prompt. Ideas are free:
// they do not consume the writing quota.
func (s *Server) handleGenerateIdea(ctx *gin.Context) {
	idea, err := s.ideas.Generate(ctx.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Idea generation failed")
		ctx.JSON(http.StatusBadGateway, ErrorResponse{Error: "backend_error", Message: "Error from language service"})
		return
	}

	ctx.JSON(http.StatusOK, IdeaResponse{Idea: idea})
}

// handleFeatureStatus reports the caller's daily state for one feature.
func (s *Server) handleFeatureStatus(ctx *gin.Context) {
	feature := ctx.Param("feature")
	if !knownFeature(feature) {
		ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Unknown feature"})
		return
	}

	user := userKey(ctx)
	max := s.maxFor(feature)
	count := s.quota.GetCount(ctx.Request.Context(), user, feature)
	status := s.completion.GetStatus(ctx.Request.Context(), user, feature)

	remaining := max - count
	if remaining < 0 || status == storage.StatusDone {
		remaining = 0
	}

	ctx.JSON(http.StatusOK, FeatureStatus{
		Feature:              feature,
		Day:                  s.days.TodayKey().String(),
		Count:                count,
		Max:                  max,
		Remaining:            remaining,
		Completion:           string(status),
		SecondsUntilRollover: s.days.SecondsUntilRollover(),
	})
}

// handleTimerStart starts or resumes the daily countdown for a feature.
func (s *Server) handleTimerStart(ctx *gin.Context) {
	feature := ctx.Param("feature")
	if !knownFeature(feature) {
		ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Unknown feature"})
		return
	}

	var req TimerStartRequest
	_ = ctx.ShouldBindJSON(&req) // body is optional
	duration := req.DurationSeconds
	if duration <= 0 {
		duration = s.config.SessionSeconds
	}

	remaining := s.countdown.Start(ctx.Request.Context(), userKey(ctx), feature, duration)
	ctx.JSON(http.StatusOK, TimerResponse{
		Feature:          feature,
		RemainingSeconds: remaining,
		Expired:          remaining == 0,
	})
}

// handleTimerTick advances the countdown by one second.
func (s *Server) handleTimerTick(ctx *gin.Context) {
	feature := ctx.Param("feature")
	if !knownFeature(feature) {
		ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Unknown feature"})
		return
	}

	remaining, err := s.countdown.Tick(ctx.Request.Context(), userKey(ctx), feature)
	if err != nil {
		ctx.JSON(http.StatusConflict, ErrorResponse{Error: "no_timer", Message: "Timer was not started"})
		return
	}

	ctx.JSON(http.StatusOK, TimerResponse{
		Feature:          feature,
		RemainingSeconds: remaining,
		Expired:          remaining == 0,
	})
}
