package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/storage"
	apperrors "github.com/KLAI0I/icu-nurse-dashboard/pkg/util/errorutil"
)

// FilesHandler serves locally stored objects behind signed tokens.
type FilesHandler struct {
	local *storage.Local
}

// NewFilesHandler constructs handler.
func NewFilesHandler(local *storage.Local) *FilesHandler {
	return &FilesHandler{local: local}
}

// Download handles GET /files/*?token=.
func (h *FilesHandler) Download(c *fiber.Ctx) error {
	key, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return apperrors.NewNotFound("file", nil)
	}
	path, err := h.local.Open(key, c.Query("token"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewNotFound("file", nil)
		}
		return apperrors.NewUnauthorized("invalid or expired file link")
	}
	c.Set(fiber.HeaderCacheControl, "private, no-store")
	return c.SendFile(path)
}
