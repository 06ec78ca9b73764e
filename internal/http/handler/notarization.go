package handler

import (
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"notaryapi/internal/http/middleware"
	"notaryapi/internal/model"
	"notaryapi/internal/service"
)

// actorFromCtx reads the authenticated identity stored by the auth middleware.
func actorFromCtx(c *fiber.Ctx) (id, role string) {
	id, _ = c.Locals(middleware.UserIDLocalKey).(string)
	role, _ = c.Locals(middleware.UserRoleLocalKey).(string)
	return id, role
}

// pageFromQuery parses limit/offset with the usual defaults.
func pageFromQuery(c *fiber.Ctx) (limit, offset int, err error) {
	limit, err = strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		return 0, 0, writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return 0, 0, writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
	}
	return limit, offset, nil
}

// uploadsFromHeaders opens multipart file headers as streaming uploads.
// The returned closer must run after the service call.
func uploadsFromHeaders(headers []*multipart.FileHeader) ([]service.UploadFile, func(), error) {
	files := make([]service.UploadFile, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	closeAll := func() {
		for _, cl := range closers {
			cl.Close()
		}
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, f)
		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		files = append(files, service.UploadFile{
			Name:        fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
			Reader:      f,
		})
	}
	return files, closeAll, nil
}

// UploadFiles handles POST /notarization/upload-files (multipart/form-data).
func UploadFiles(svc service.NotarizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "multipart form is required")
		}
		field := func(name string) string {
			if v := form.Value[name]; len(v) > 0 {
				return v[0]
			}
			return ""
		}
		amount, err := strconv.ParseInt(field("amount"), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_AMOUNT", "invalid amount")
		}

		files, closeAll, err := uploadsFromHeaders(form.File["files"])
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer closeAll()

		userID, _ := actorFromCtx(c)
		doc, err := svc.CreateDocument(c.UserContext(), service.CreateDocumentParams{
			UserID: userID,
			Requester: model.RequesterInfo{
				FullName:    field("full_name"),
				CitizenID:   field("citizen_id"),
				PhoneNumber: field("phone_number"),
				Email:       field("email"),
			},
			NotarizationField:   field("notarization_field"),
			NotarizationService: field("notarization_service"),
			Amount:              amount,
			Files:               files,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// ForwardDocumentStatus handles PATCH /notarization/forwardDocumentStatus/:documentId.
// Accepts multipart form data so the notary can attach output files; action
// and feedback travel as form values (or query fallbacks for JSON-less calls).
func ForwardDocumentStatus(svc service.NotarizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, role := actorFromCtx(c)
		params := service.ForwardParams{
			DocumentID: c.Params("documentId"),
			ActorID:    actorID,
			ActorRole:  role,
			Action:     c.Query("action"),
			Feedback:   c.Query("feedback"),
		}

		if form, err := c.MultipartForm(); err == nil {
			if v := form.Value["action"]; len(v) > 0 {
				params.Action = v[0]
			}
			if v := form.Value["feedback"]; len(v) > 0 {
				params.Feedback = v[0]
			}
			files, closeAll, err := uploadsFromHeaders(form.File["output_files"])
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer closeAll()
			params.OutputFiles = files
		} else if len(c.Body()) > 0 {
			var body struct {
				Action   string `json:"action"`
				Feedback string `json:"feedback"`
			}
			if err := c.BodyParser(&body); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
			}
			params.Action = body.Action
			params.Feedback = body.Feedback
		}

		doc, err := svc.ForwardStatus(c.UserContext(), params)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(doc)
	}
}

// ApproveSignatureByUser handles POST /notarization/approve-signature-by-user.
func ApproveSignatureByUser(svc service.NotarizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		documentID := c.FormValue("document_id")
		fh, err := c.FormFile("signature_image")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "signature image is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		sig, err := svc.ApproveSignatureByUser(c.UserContext(), documentID, service.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Reader:      f,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(sig)
	}
}

// ApproveSignatureByNotary handles POST /notarization/approve-signature-by-notary.
func ApproveSignatureByNotary(svc service.NotarizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			DocumentID string `json:"document_id"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		sig, err := svc.ApproveSignatureByNotary(c.UserContext(), body.DocumentID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(sig)
	}
}

// GetDocument handles GET /notarization/document/:documentId.
func GetDocument(svc service.NotarizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), c.Params("documentId"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(doc)
	}
}

// GetDocumentStatus handles GET /notarization/getStatusById/:documentId.
func GetDocumentStatus(svc service.NotarizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Status(c.UserContext(), c.Params("documentId"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetDocumentByRole handles GET /notarization/getDocumentByRole, the work
// queue listing filtered on status.
func GetDocumentByRole(svc service.NotarizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := pageFromQuery(c)
		if err != nil {
			return err
		}
		res, err := svc.ListByStatus(c.UserContext(), c.Query("status"), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetHistory handles GET /notarization/history/:userId.
func GetHistory(svc service.NotarizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := pageFromQuery(c)
		if err != nil {
			return err
		}
		res, err := svc.HistoryByUser(c.UserContext(), c.Params("userId"), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetAllNotarizations handles GET /notarization/getAllNotarizations.
func GetAllNotarizations(svc service.NotarizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := pageFromQuery(c)
		if err != nil {
			return err
		}
		res, err := svc.ListAll(c.UserContext(), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// DocumentMetrics handles GET /admin/documents/metrics.
func DocumentMetrics(svc service.NotarizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		counts, err := svc.StatusMetrics(c.UserContext())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"data": counts})
	}
}
