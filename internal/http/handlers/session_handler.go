// Session HTTP handlers.
//
// This file exposes REST endpoints for session resources:
//   - GET    /sessions/{token}   (session + paginated history, weak ETag)
//   - DELETE /sessions/{token}   (idempotent deletion)
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/domain"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/services"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/utils"
)

// SessionService defines the session read/delete operations consumed by the
// HTTP layer.
type SessionService interface {
	// Get returns the session and its full stored history.
	Get(ctx context.Context, token string) (*domain.Session, []domain.Turn, error)
	// Delete removes a session and its history. Idempotent.
	Delete(ctx context.Context, token string) error
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// SessionResponse wraps a session with a page of its history.
type SessionResponse struct {
	Session    domain.Session `json:"session"`
	History    []domain.Turn  `json:"history"`
	Pagination Pagination     `json:"pagination"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// GetSession godoc
// @ID          getSession
// @Summary     Fetch a session and its history
// @Description Returns the session and a page of its conversation history. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Sessions
// @Produce     json
//
// @Param       token          path    string  true  "Session token"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.SessionResponse
// @Header      200  {string} ETag  "Weak ETag for current history"
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Unknown or expired token"
// @Router      /sessions/{token} [get]
func (h *Handlers) GetSession(c *gin.Context) {
	token := c.Param("token")

	sess, history, err := h.sessSvc.Get(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load session")
		return
	}

	// Weak ETag from turn count and last activity.
	var lastTS int64
	if n := len(history); n > 0 {
		lastTS = history[n-1].CreatedAt.Unix()
	}
	etag := fmt.Sprintf(`W/"session:%s:%d:%d"`, token, len(history), lastTS)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	page, pageSize := clampPagination(c)
	total := int64(len(history))
	start := (page - 1) * pageSize
	if start > len(history) {
		start = len(history)
	}
	end := start + pageSize
	if end > len(history) {
		end = len(history)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, SessionResponse{
		Session: *sess,
		History: history[start:end],
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// DeleteSession godoc
// @ID          deleteSession
// @Summary     Delete a session
// @Description Removes the session and its conversation history. Deleting an unknown token succeeds.
// @Tags        Sessions
// @Produce     json
//
// @Param       token  path  string  true  "Session token"
//
// @Success     204  {string} string "No Content"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sessions/{token} [delete]
func (h *Handlers) DeleteSession(c *gin.Context) {
	if err := h.sessSvc.Delete(c.Request.Context(), c.Param("token")); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete session")
		return
	}
	noContent(c)
}
