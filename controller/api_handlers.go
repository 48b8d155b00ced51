package controller

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"

	"sstab/models"
)

// Handler serves one parse result over HTTP. Until SetData is called every
// data route answers 503; after SetError it answers 500.
type Handler struct {
	mu      sync.RWMutex
	data    *ParseResult
	loadErr error
}

func NewHandler(data *ParseResult) *Handler {
	return &Handler{data: data}
}

// SetData swaps in a fresh parse result.
func (h *Handler) SetData(data *ParseResult) {
	h.mu.Lock()
	h.data = data
	h.loadErr = nil
	h.mu.Unlock()
}

// SetError records why the data could not be loaded.
func (h *Handler) SetError(err error) {
	h.mu.Lock()
	h.loadErr = err
	h.mu.Unlock()
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/summary", h.GetSummary)
	api.GET("/columns", h.GetColumns)
	api.GET("/rows", h.GetRows)
	api.GET("/failures", h.GetFailures)
}

func (h *Handler) current(c echo.Context) (*ParseResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.loadErr != nil {
		return nil, c.JSON(http.StatusInternalServerError, map[string]string{
			"status": "failed",
			"error":  h.loadErr.Error(),
		})
	}
	if h.data == nil {
		return nil, c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})
	}
	return h.data, nil
}

// --- HANDLERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) GetSummary(c echo.Context) error {
	data, err := h.current(c)
	if data == nil {
		return err
	}
	return c.JSON(http.StatusOK, data.Summary)
}

func (h *Handler) GetColumns(c echo.Context) error {
	data, err := h.current(c)
	if data == nil {
		return err
	}
	return c.JSON(http.StatusOK, data.Table.Columns)
}

// rows are objects keyed by column; absent cells are omitted
func (h *Handler) GetRows(c echo.Context) error {
	data, err := h.current(c)
	if data == nil {
		return err
	}
	rows := data.Table.Rows
	total := len(rows)
	limit, offset := getPaginationParams(c, 100)

	page := []map[string]any{}
	if offset < total {
		end := total
		if limit < total-offset {
			end = offset + limit
		}
		for _, r := range rows[offset:end] {
			page = append(page, r.JSONObject())
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   page,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetFailures(c echo.Context) error {
	data, err := h.current(c)
	if data == nil {
		return err
	}
	failures := data.Batch.Failures
	if failures == nil {
		failures = []models.ParseFailure{}
	}
	return c.JSON(http.StatusOK, failures)
}
