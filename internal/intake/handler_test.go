package intake

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/logging"
	"github.com/fixmyhinge/fixmyhinge/internal/middleware"
	"github.com/fixmyhinge/fixmyhinge/internal/notification"
	"github.com/fixmyhinge/fixmyhinge/internal/photo"
	"github.com/fixmyhinge/fixmyhinge/internal/profile"
	"github.com/fixmyhinge/fixmyhinge/internal/storage"
)

type codeCapture struct {
	code string
}

func (n *codeCapture) Send(_ context.Context, msg notification.Message) error {
	n.code = msg.Body
	return nil
}

func setupUploadApp(t *testing.T) (*fiber.App, string, *storage.MemoryStore) {
	t.Helper()
	ctx := context.Background()

	capture := &codeCapture{}
	provider := identity.NewMemoryProvider(capture)
	ch, err := provider.InitiateChallenge(ctx, "+15550100", "proof")
	if err != nil {
		t.Fatalf("initiate challenge: %v", err)
	}
	sess, err := provider.Confirm(ctx, ch, capture.code)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	profiles := profile.NewMemoryRepository()
	if err := profiles.Create(ctx, profile.Document{ID: sess.Identity.ID, PhoneNumber: "+15550100", Name: "Drew"}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	objects := storage.NewMemoryStore()
	uploader := NewUploader(objects, photo.NewMemoryRepository(), profiles)
	h := NewHandler(uploader, 10, 20, logging.Discard())

	app := fiber.New()
	app.Post("/photos", middleware.BearerAuth(provider), h.Upload)
	return app, sess.Token, objects
}

func multipartBatch(t *testing.T, n int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i := 0; i < n; i++ {
		part, err := w.CreateFormFile(uploadFieldName, fmt.Sprintf("photo-%02d.jpg", i))
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte{0xff, 0xd8}); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func postBatch(t *testing.T, app *fiber.App, token string, n int) int {
	t.Helper()
	body, contentType := multipartBatch(t, n)
	req := httptest.NewRequest(fiber.MethodPost, "/photos", body)
	req.Header.Set(fiber.HeaderContentType, contentType)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestUploadEndpointStoresBatch(t *testing.T) {
	app, token, objects := setupUploadApp(t)

	if status := postBatch(t, app, token, 12); status != fiber.StatusCreated {
		t.Fatalf("expected %d got %d", fiber.StatusCreated, status)
	}
	if objects.Len() != 12 {
		t.Fatalf("expected 12 stored objects, got %d", objects.Len())
	}
}

func TestUploadEndpointEnforcesBounds(t *testing.T) {
	app, token, objects := setupUploadApp(t)

	if status := postBatch(t, app, token, 9); status != fiber.StatusBadRequest {
		t.Fatalf("below minimum: expected %d got %d", fiber.StatusBadRequest, status)
	}
	if status := postBatch(t, app, token, 21); status != fiber.StatusBadRequest {
		t.Fatalf("above maximum: expected %d got %d", fiber.StatusBadRequest, status)
	}
	if objects.Len() != 0 {
		t.Fatalf("rejected batches must not store anything, got %d", objects.Len())
	}
}

func TestUploadEndpointRequiresAuth(t *testing.T) {
	app, _, _ := setupUploadApp(t)

	if status := postBatch(t, app, "not-a-token", 12); status != fiber.StatusUnauthorized {
		t.Fatalf("expected %d got %d", fiber.StatusUnauthorized, status)
	}
}
