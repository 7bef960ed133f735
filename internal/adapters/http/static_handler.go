package http

import (
	"path/filepath"

	"github.com/labstack/echo/v4"
)

// StaticHandler serves the editor front end
type StaticHandler struct {
	dir   string
	index string
}

// NewStaticHandler creates a static handler rooted at dir
func NewStaticHandler(dir, index string) *StaticHandler {
	return &StaticHandler{dir: dir, index: index}
}

// Index godoc
// @Summary Editor page
// @Description Serve the editor's index.html
// @Tags static
// @Produce html
// @Success 200 {string} string "HTML document"
// @Failure 404 {object} ErrorResponse
// @Router / [get]
func (h *StaticHandler) Index(c echo.Context) error {
	return c.File(filepath.Join(h.dir, h.index))
}

// Register mounts the index route and the asset directory on e
func (h *StaticHandler) Register(e *echo.Echo) {
	e.GET("/", h.Index)
	e.Static("/public", h.dir)
}
