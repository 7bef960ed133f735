package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hudeditor/hudstore/internal/domain/entities"
	"github.com/hudeditor/hudstore/internal/infrastructure/logger"
	"github.com/hudeditor/hudstore/internal/ports"
)

// DocumentHandler handles save and load requests from the editor
type DocumentHandler struct {
	documentService ports.DocumentService
	logger          *logger.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService ports.DocumentService, logger *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          logger,
	}
}

// Save godoc
// @Summary Save the document
// @Description Replace the stored document with the raw request body
// @Tags documents
// @Accept json
// @Produce json
// @Param slot query string false "Slot name (default or slotN)"
// @Param document body object true "Any JSON value"
// @Success 200 {object} ports.StatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /save [post]
func (h *DocumentHandler) Save(c echo.Context) error {
	query, err := bindSlotQuery(c)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body").SetInternal(err)
	}

	if err := h.documentService.Save(c.Request().Context(), query.Slot, body); err != nil {
		h.logger.WithRequestID(requestID(c)).Warnw("Save failed", "error", err, "slot", query.Slot)
		return documentError(err)
	}

	return c.JSON(http.StatusOK, ports.StatusResponse{Status: "ok"})
}

// Load godoc
// @Summary Load the document
// @Description Return the stored document, or an empty object if nothing was saved yet
// @Tags documents
// @Produce json
// @Param slot query string false "Slot name (default or slotN)"
// @Success 200 {object} object
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /load [get]
func (h *DocumentHandler) Load(c echo.Context) error {
	query, err := bindSlotQuery(c)
	if err != nil {
		return err
	}

	doc, err := h.documentService.Load(c.Request().Context(), query.Slot)
	if err != nil {
		h.logger.WithRequestID(requestID(c)).Errorw("Load failed", "error", err, "slot", query.Slot)
		return documentError(err)
	}

	return c.JSONBlob(http.StatusOK, doc)
}

// bindSlotQuery binds only query parameters so the request body is left unread.
func bindSlotQuery(c echo.Context) (ports.SlotQuery, error) {
	var query ports.SlotQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return query, echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}
	if err := c.Validate(&query); err != nil {
		return query, echo.NewHTTPError(http.StatusBadRequest, entities.ErrInvalidSlot.Error())
	}
	return query, nil
}

// documentError maps service errors to HTTP errors
func documentError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, entities.ErrInvalidSlot):
		return echo.NewHTTPError(http.StatusBadRequest, entities.ErrInvalidSlot.Error())
	case errors.Is(err, entities.ErrInvalidEncoding):
		return echo.NewHTTPError(http.StatusBadRequest, entities.ErrInvalidEncoding.Error())
	case errors.Is(err, entities.ErrInvalidDocument):
		return echo.NewHTTPError(http.StatusBadRequest, entities.ErrInvalidDocument.Error())
	case errors.Is(err, entities.ErrCorruptDocument):
		return echo.NewHTTPError(http.StatusInternalServerError, entities.ErrCorruptDocument.Error()).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Storage error").SetInternal(err)
	}
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// ErrorResponse is the JSON envelope for every error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}
