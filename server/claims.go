package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/verisphere/semantic-dedupe/dedupe"
)

type checkDuplicateRequest struct {
	// ClaimText is a pointer so a missing field can be told apart from an
	// empty (but valid) claim.
	ClaimText *string `json:"claim_text"`
	TopK      int     `json:"top_k"`
}

type checkDuplicateBatchRequest struct {
	Claims []string `json:"claims"`
	TopK   int      `json:"top_k"`
}

type checkDuplicateBatchResponse struct {
	Results []*dedupe.CheckResult `json:"results"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) checkDuplicate(c echo.Context) error {
	var req checkDuplicateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.ClaimText == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "claim_text is required")
	}

	result, err := s.engine.CheckDuplicate(c.Request().Context(), *req.ClaimText, req.TopK)
	if err != nil {
		return mapEngineError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) checkDuplicateBatch(c echo.Context) error {
	var req checkDuplicateBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	results, err := s.engine.CheckDuplicateBatch(c.Request().Context(), req.Claims, req.TopK)
	if err != nil {
		return mapEngineError(err)
	}
	return c.JSON(http.StatusOK, checkDuplicateBatchResponse{Results: results})
}

// mapEngineError turns input validation sentinels into 400s; everything
// else stays a 500 for the error handler.
func mapEngineError(err error) error {
	if errors.Is(err, dedupe.ErrInvalidTopK) || errors.Is(err, dedupe.ErrInvalidBatchSize) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}
