package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/pickstreak/pickstreak/internal/usecase"
)

func (h *Handler) RunBuildSlateJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunBuildSlateJob")
	defer span.End()

	result, err := h.slateService.BuildTodaySlate(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run build slate job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, buildSlateResultDTO{
		SlateID:   result.SlateID,
		Date:      result.Date,
		GameCount: result.Games,
		Created:   result.Created,
		Message:   result.Message,
	})
}

func (h *Handler) RunCheckScoresJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunCheckScoresJob")
	defer span.End()

	req, err := decodeCheckScoresJobRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.scoreService.CheckScores(ctx, req.SlateID)
	if err != nil {
		h.logger.WarnContext(ctx, "run check scores job failed", "slate_id", req.SlateID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, checkScoresResultDTO{
		SlatesChecked:   result.SlatesChecked,
		GamesUpdated:    result.GamesUpdated,
		PicksGraded:     result.PicksGraded,
		SlatesLocked:    result.SlatesLocked,
		SlatesFinalized: result.SlatesFinalized,
	})
}

func (h *Handler) RunFinalizeJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunFinalizeJob")
	defer span.End()

	req, err := decodeFinalizeJobRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.finalizeService.FinalizeSlate(ctx, req.SlateID, req.Force)
	if err != nil {
		h.logger.WarnContext(ctx, "run finalize job failed", "slate_id", req.SlateID, "force", req.Force, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, finalizeResultDTO{
		SlateID: result.SlateID,
		Message: result.Message,
		Results: result.Results,
	})
}

// decodeFinalizeJobRequest tolerates an empty body so schedulers can POST
// without a payload to finalize the oldest unfinalized slate.
func decodeFinalizeJobRequest(r *http.Request) (finalizeJobRequest, error) {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req finalizeJobRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return finalizeJobRequest{}, nil
		}
		return finalizeJobRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

// decodeCheckScoresJobRequest tolerates an empty body; schedulers POST
// with no payload to sweep every unfinalized slate.
func decodeCheckScoresJobRequest(r *http.Request) (checkScoresJobRequest, error) {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req checkScoresJobRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return checkScoresJobRequest{}, nil
		}
		return checkScoresJobRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

type finalizeJobRequest struct {
	SlateID string `json:"slate_id"`
	Force   bool   `json:"force"`
}

type checkScoresJobRequest struct {
	SlateID string `json:"slate_id"`
}

type buildSlateResultDTO struct {
	SlateID   string `json:"slateId"`
	Date      string `json:"date"`
	GameCount int    `json:"gameCount"`
	Created   bool   `json:"created"`
	Message   string `json:"message"`
}

type checkScoresResultDTO struct {
	SlatesChecked   int      `json:"slatesChecked"`
	GamesUpdated    int      `json:"gamesUpdated"`
	PicksGraded     int      `json:"picksGraded"`
	SlatesLocked    []string `json:"slatesLocked,omitempty"`
	SlatesFinalized []string `json:"slatesFinalized,omitempty"`
}

type finalizeResultDTO struct {
	SlateID string   `json:"slateId"`
	Message string   `json:"message"`
	Results []string `json:"results,omitempty"`
}
