package handler

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
)

type DocumentHandler struct {
	docs     ports.DocumentService
	maxBytes int64
}

func NewDocumentHandler(docs ports.DocumentService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{docs: docs, maxBytes: maxUploadBytes}
}

// List returns documents, newest first.
//
// @Summary      List documents
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        clientId  query     string  false  "Filter by client (admin only)"
// @Param        taskId    query     string  false  "Filter by task"
// @Success      200       {array}   domain.Document
// @Router       /documents [get]
func (h *DocumentHandler) List(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	docs, err := h.docs.List(c.Request().Context(), actor, ports.DocumentFilter{
		ClientID: c.QueryParam("clientId"),
		TaskID:   c.QueryParam("taskId"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, docs)
}

// Get returns document metadata.
//
// @Summary      Get document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      403  {object}  api.errorResponse
// @Failure      404  {object}  api.errorResponse
// @Router       /documents/{id} [get]
func (h *DocumentHandler) Get(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	doc, err := h.docs.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// Upload stores a file and records it.
//
// @Summary      Upload document
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file         formData  file    true   "File (max 10 MB)"
// @Param        name         formData  string  false  "Display name (defaults to the file name)"
// @Param        description  formData  string  false  "Description"
// @Param        clientId     formData  string  false  "Owner client (admin only)"
// @Param        taskId       formData  string  false  "Related task"
// @Success      201          {object}  domain.Document
// @Failure      400          {object}  api.errorResponse
// @Failure      404          {object}  api.errorResponse
// @Failure      413          {object}  api.errorResponse
// @Router       /documents [post]
func (h *DocumentHandler) Upload(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		switch {
		case errors.Is(err, echo.ErrStatusRequestEntityTooLarge):
			return h.tooLarge()
		case errors.Is(err, http.ErrMissingFile):
			return invalidInput("file is required")
		}
		return invalidInput("invalid multipart form")
	}
	if fh.Size > h.maxBytes {
		return h.tooLarge()
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	doc, err := h.docs.Upload(c.Request().Context(), actor, ports.UploadDocumentInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		ClientID:    c.FormValue("clientId"),
		TaskID:      c.FormValue("taskId"),
		File: ports.FileInput{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandler) tooLarge() error {
	return fmt.Errorf("%w: files are limited to %d MB", domain.ErrPayloadTooLarge, h.maxBytes>>20)
}

// Download streams the file, or redirects to it when the backend serves it.
//
// @Summary      Download document
// @Tags         documents
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {file}    file
// @Success      302  {string}  string  "Redirect to the stored asset"
// @Failure      403  {object}  api.errorResponse
// @Failure      404  {object}  api.errorResponse
// @Router       /documents/download/{id} [get]
func (h *DocumentHandler) Download(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	doc, obj, err := h.docs.Download(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	if obj.RedirectURL != "" {
		return c.Redirect(http.StatusFound, obj.RedirectURL)
	}
	defer obj.Body.Close()

	fileName := doc.FileName
	if fileName == "" {
		fileName = doc.Name
	}
	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	if obj.Size > 0 {
		header.Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, obj.Body)
}

// Delete removes the document and its stored file.
//
// @Summary      Delete document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  api.errorResponse
// @Failure      404  {object}  api.errorResponse
// @Router       /documents/{id} [delete]
func (h *DocumentHandler) Delete(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	if err := h.docs.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "document deleted"})
}
