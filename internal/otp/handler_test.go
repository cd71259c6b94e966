package otp

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kivu-bank/kivu_kyc/internal/apperror"
	"github.com/kivu-bank/kivu_kyc/internal/logging"
)

func handlerApp(sender *captureSender) *fiber.App {
	svc, _ := newTestService(sender, time.Minute, 5)
	h := NewHandler(svc)

	app := fiber.New(fiber.Config{ErrorHandler: apperror.FiberErrorHandler(logging.Discard())})
	app.Post("/otp/send", h.Send)
	app.Post("/otp/validate", h.Validate)
	return app
}

func postOTP(t *testing.T, app *fiber.App, path string, payload any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(string(raw)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	decoded := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &decoded); err != nil {
			t.Fatalf("decode body %q: %v", body, err)
		}
	}
	return resp.StatusCode, decoded
}

func TestSendAndValidateOverHTTP(t *testing.T) {
	sender := &captureSender{}
	app := handlerApp(sender)
	deviceKey := testJWK(t)

	status, body := postOTP(t, app, "/otp/send", fiber.Map{
		"phone_number": "+243900000040",
		"device_pub":   deviceKey,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("send: expected 201, got %d (%v)", status, body)
	}
	if body["otp_hash"] == "" || body["status"] != string(StatusPending) {
		t.Fatalf("unexpected send response: %v", body)
	}

	status, body = postOTP(t, app, "/otp/validate", fiber.Map{
		"phone_number": "+243900000040",
		"otp":          sender.code,
		"device_pub":   deviceKey,
	})
	if status != fiber.StatusOK {
		t.Fatalf("validate: expected 200, got %d (%v)", status, body)
	}
	if body["status"] != string(StatusValidated) {
		t.Fatalf("unexpected validate response: %v", body)
	}
}

func TestValidateRejectsShortCodeOverHTTP(t *testing.T) {
	app := handlerApp(&captureSender{})

	status, _ := postOTP(t, app, "/otp/validate", fiber.Map{
		"phone_number": "+243900000041",
		"otp":          "12",
		"device_pub":   testJWK(t),
	})
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for short code, got %d", status)
	}
}

func TestValidateUnknownDeviceOverHTTP(t *testing.T) {
	app := handlerApp(&captureSender{})

	status, body := postOTP(t, app, "/otp/validate", fiber.Map{
		"phone_number": "+243900000042",
		"otp":          "1234",
		"device_pub":   testJWK(t),
	})
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown device, got %d (%v)", status, body)
	}
	if body["code"] != apperror.KindNotFound.Code() {
		t.Fatalf("unexpected error code: %v", body["code"])
	}
}
