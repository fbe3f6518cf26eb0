package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/pickstreak/pickstreak/internal/domain/pick"
	"github.com/pickstreak/pickstreak/internal/domain/slate"
	"github.com/pickstreak/pickstreak/internal/usecase"
)

type Handler struct {
	slateService    *usecase.SlateService
	scoreService    *usecase.ScoreSyncService
	finalizeService *usecase.FinalizeService
	readiness       func(ctx context.Context) error
	logger          *slog.Logger
	validator       *validator.Validate
}

func NewHandler(
	slateService *usecase.SlateService,
	scoreService *usecase.ScoreSyncService,
	finalizeService *usecase.FinalizeService,
	readiness func(ctx context.Context) error,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		slateService:    slateService,
		scoreService:    scoreService,
		finalizeService: finalizeService,
		readiness:       readiness,
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Readyz")
	defer span.End()

	if h.readiness != nil {
		if err := h.readiness(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness probe failed", "error", err)
			writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err))
			return
		}
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) GetTodaySlate(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTodaySlate")
	defer span.End()

	current, games, err := h.slateService.TodaySlate(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get today slate failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, slateToDTO(ctx, current, games))
}

func (h *Handler) GetSlateScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSlateScores")
	defer span.End()

	slateID := strings.TrimSpace(r.PathValue("slateID"))
	current, games, err := h.slateService.SlateByID(ctx, slateID)
	if err != nil {
		h.logger.WarnContext(ctx, "get slate scores failed", "slate_id", slateID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, slateToDTO(ctx, current, games))
}

func (h *Handler) GetSlateActivity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSlateActivity")
	defer span.End()

	slateID := strings.TrimSpace(r.PathValue("slateID"))
	entries, err := h.slateService.SlateActivity(ctx, slateID)
	if err != nil {
		h.logger.WarnContext(ctx, "get slate activity failed", "slate_id", slateID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]slateActivityDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, slateActivityDTO{
			UserID:    entry.UserID,
			PickCount: entry.PickCount,
			LockedIn:  entry.LockedIn,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) SubmitPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPick")
	defer span.End()

	slateID := strings.TrimSpace(r.PathValue("slateID"))
	var req submitPickRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.slateService.SubmitPick(ctx, usecase.SubmitPickInput{
		SlateID: slateID,
		GameID:  req.GameID,
		UserID:  req.UserID,
		Picked:  req.Picked,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit pick failed", "slate_id", slateID, "game_id", req.GameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pickToDTO(ctx, item))
}

func (h *Handler) DeletePick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeletePick")
	defer span.End()

	slateID := strings.TrimSpace(r.PathValue("slateID"))
	gameID := strings.TrimSpace(r.PathValue("gameID"))
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))

	err := h.slateService.DeletePick(ctx, usecase.DeletePickInput{
		SlateID: slateID,
		GameID:  gameID,
		UserID:  userID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "delete pick failed", "slate_id", slateID, "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type submitPickRequest struct {
	GameID string `json:"game_id" validate:"required"`
	UserID string `json:"user_id" validate:"required,max=100"`
	Picked string `json:"picked" validate:"required,oneof=home away"`
}

type slateDTO struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	Games     []gameDTO `json:"games"`
	CreatedAt string    `json:"createdAtUtc"`
}

type gameDTO struct {
	ID         string `json:"id"`
	Sport      string `json:"sport"`
	HomeTeam   string `json:"homeTeam"`
	AwayTeam   string `json:"awayTeam"`
	CommenceAt string `json:"commenceAtUtc"`
	Status     string `json:"status"`
	HomeScore  *int   `json:"homeScore,omitempty"`
	AwayScore  *int   `json:"awayScore,omitempty"`
	Winner     string `json:"winner,omitempty"`
}

type pickDTO struct {
	ID        string `json:"id"`
	SlateID   string `json:"slateId"`
	GameID    string `json:"gameId"`
	UserID    string `json:"userId"`
	Picked    string `json:"picked"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
	CreatedAt string `json:"createdAtUtc"`
}

type slateActivityDTO struct {
	UserID    string `json:"userId"`
	PickCount int    `json:"pickCount"`
	LockedIn  bool   `json:"lockedIn"`
}

func slateToDTO(ctx context.Context, v slate.Slate, games []slate.Game) slateDTO {
	ctx, span := startSpan(ctx, "httpapi.slateToDTO")
	defer span.End()

	items := make([]gameDTO, 0, len(games))
	for _, game := range games {
		items = append(items, gameToDTO(ctx, game))
	}

	return slateDTO{
		ID:        v.ID,
		Date:      v.Date,
		Status:    v.Status,
		Games:     items,
		CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func gameToDTO(ctx context.Context, v slate.Game) gameDTO {
	ctx, span := startSpan(ctx, "httpapi.gameToDTO")
	defer span.End()

	return gameDTO{
		ID:         v.ID,
		Sport:      v.Sport,
		HomeTeam:   v.HomeTeam,
		AwayTeam:   v.AwayTeam,
		CommenceAt: v.CommenceAt.UTC().Format(time.RFC3339),
		Status:     v.Status,
		HomeScore:  v.HomeScore,
		AwayScore:  v.AwayScore,
		Winner:     v.Winner,
	}
}

func pickToDTO(ctx context.Context, v pick.Pick) pickDTO {
	ctx, span := startSpan(ctx, "httpapi.pickToDTO")
	defer span.End()

	return pickDTO{
		ID:        v.ID,
		SlateID:   v.SlateID,
		GameID:    v.GameID,
		UserID:    v.UserID,
		Picked:    v.Picked,
		IsCorrect: v.IsCorrect,
		CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
	}
}
