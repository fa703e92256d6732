package intake

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fixmyhinge/fixmyhinge/internal/middleware"
)

const uploadFieldName = "photos"

// Handler exposes the photo batch upload. The whole batch arrives in one
// multipart request and is validated against the selection bounds before any
// byte is stored.
type Handler struct {
	uploader  *Uploader
	minPhotos int
	maxPhotos int
	logger    *slog.Logger
}

// NewHandler builds an intake handler with the configured bounds.
func NewHandler(uploader *Uploader, minPhotos, maxPhotos int, logger *slog.Logger) *Handler {
	return &Handler{uploader: uploader, minPhotos: minPhotos, maxPhotos: maxPhotos, logger: logger}
}

// Upload validates and sequentially uploads a photo batch for the
// authenticated identity.
func (h *Handler) Upload(c *fiber.Ctx) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	headers := form.File[uploadFieldName]

	sel := NewSelection(h.minPhotos, h.maxPhotos)
	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		files = append(files, File{
			Name:        fh.Filename,
			Data:        data,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
		})
	}
	if err := sel.Add(files...); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	var steps []Progress
	err = h.uploader.Upload(c.UserContext(), ident.ID, sel, func(p Progress) {
		steps = append(steps, p)
	})
	if err != nil {
		var limitErr *LimitError
		var minErr *MinimumError
		if errors.As(err, &limitErr) || errors.As(err, &minErr) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		h.logger.Error("photo upload failed", "user_id", ident.ID, "error", err)
		return fiber.NewError(http.StatusInternalServerError, "Error uploading photos")
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"uploaded": len(files),
		"progress": steps,
	})
}
