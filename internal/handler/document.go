package handler

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/advocate-booking/internal/service"
)

// DocumentHandler accepts multipart uploads and streams stored files back.
type DocumentHandler struct {
	IDs  Identity
	Docs Documents
	Log  *zap.Logger
}

func NewDocumentHandler(ids Identity, docs Documents, log *zap.Logger) *DocumentHandler {
	return &DocumentHandler{IDs: ids, Docs: docs, Log: log}
}

// Upload: POST /v1/bookings/:id/documents (multipart: title, description, file)
func (h *DocumentHandler) Upload(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "unreadable file")
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 4*requestTimeout)
	defer cancel()
	me, err := actor(ctx, c, h.IDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	d, err := h.Docs.Upload(ctx, me, id, service.Upload{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		FileName:    fh.Filename,
		Body:        f,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toDocument(d))
}

// List: GET /v1/bookings/:id/documents
func (h *DocumentHandler) List(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	me, err := actor(ctx, c, h.IDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	list, err := h.Docs.List(ctx, me, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toDocuments(list)})
}

// File: GET /v1/documents/:id/file
func (h *DocumentHandler) File(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid document id")
	}
	ctx := c.Request().Context()
	me, err := actor(ctx, c, h.IDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	d, rc, err := h.Docs.Open(ctx, me, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	defer rc.Close()

	ctype := mime.TypeByExtension(filepath.Ext(d.FileName))
	if ctype == "" {
		ctype = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", d.FileName))
	return c.Stream(http.StatusOK, ctype, rc)
}
