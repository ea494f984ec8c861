package handler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

var validate = validator.New()

type createDocumentRequest struct {
	Name        string `form:"name" validate:"required,max=255"`
	Tag         string `form:"tag" validate:"max=100"`
	Description string `form:"description" validate:"max=2000"`
}

type updateDocumentRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Tag         *string `json:"tag" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

var errInvalidID = errors.New("invalid id")

// callerID reads the authenticated identity set by the auth middleware.
// These helpers only report failure; the caller writes the response and must
// stop, so invalid input never reaches the service as a zero id.
func callerID(c *fiber.Ctx) (int64, bool) {
	return middleware.UserIDFromCtx(c)
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// ListDocuments handles GET /documents with page/limit/search/tag query
// parameters.
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := callerID(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		}

		page, err := strconv.Atoi(c.Query("page", "1"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}

		res, err := docSvc.List(c.UserContext(), userID, page, limit, c.Query("search"), c.Query("tag"))
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// ListDocumentTags handles GET /documents/tags.
func ListDocumentTags(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := callerID(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		}

		tags, err := docSvc.ListTags(c.UserContext(), userID)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(fiber.Map{"tags": tags})
	}
}

// UploadDocument handles POST /documents (multipart/form-data, field name:
// file, plus name/tag/description metadata fields).
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := callerID(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		req := createDocumentRequest{
			Name:        c.FormValue("name"),
			Tag:         c.FormValue("tag"),
			Description: c.FormValue("description"),
		}
		if req.Name == "" {
			req.Name = fh.Filename
		}
		if err := validate.Struct(req); err != nil {
			return writeValidationError(c, err)
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := docSvc.Upload(c.UserContext(), userID, service.CreateDocumentInput{
			Name:        req.Name,
			Tag:         req.Tag,
			Description: req.Description,
			Filename:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
		}, f)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument handles GET /documents/:id.
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := callerID(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		}
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		doc, err := docSvc.Get(c.UserContext(), id, userID)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// UpdateDocument handles PATCH /documents/:id with a partial metadata body.
func UpdateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := callerID(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		}
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var req updateDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		if err := validate.Struct(req); err != nil {
			return writeValidationError(c, err)
		}

		doc, err := docSvc.Update(c.UserContext(), id, userID, service.UpdateDocumentInput{
			Name:        req.Name,
			Tag:         req.Tag,
			Description: req.Description,
		})
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument handles DELETE /documents/:id.
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := callerID(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		}
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		if err := docSvc.Delete(c.UserContext(), id, userID); err != nil {
			return mapServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadDocument handles GET /documents/:id/download, streaming the blob
// with the stored mimetype and an attachment disposition.
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := callerID(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		}
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		rc, doc, err := docSvc.Download(c.UserContext(), id, userID)
		if err != nil {
			return mapServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, doc.Mimetype)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
		// Stream until EOF; the storage backend is authoritative for the
		// blob's length, not the metadata row.
		return c.SendStream(rc)
	}
}
