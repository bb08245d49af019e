package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/skillswap/skillswap-backend/internal/utils"
)

const testSecret = "test-secret"

func testApp() *fiber.App {
	app := fiber.New()
	app.Get("/admin",
		RequireJWT(testSecret),
		AttachJWTLocals(),
		RequireRoles("admin"),
		func(c *fiber.Ctx) error { return c.SendString("ok") },
	)
	return app
}

func request(t *testing.T, app *fiber.App, token string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode
}

func TestRequireJWTRejectsMissingToken(t *testing.T) {
	app := testApp()
	if status := request(t, app, ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestRequireJWTRejectsBadToken(t *testing.T) {
	app := testApp()
	if status := request(t, app, "not-a-token"); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestRequireJWTRejectsWrongSecret(t *testing.T) {
	app := testApp()
	token, err := utils.SignJWT("other-secret", "11111111-1111-1111-1111-111111111111", "admin", 60)
	if err != nil {
		t.Fatal(err)
	}
	if status := request(t, app, token); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestRequireRolesBlocksWrongRole(t *testing.T) {
	app := testApp()
	token, err := utils.SignJWT(testSecret, "11111111-1111-1111-1111-111111111111", "freelancer", 60)
	if err != nil {
		t.Fatal(err)
	}
	if status := request(t, app, token); status != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
}

func TestRequireRolesAllowsMatchingRole(t *testing.T) {
	app := testApp()
	token, err := utils.SignJWT(testSecret, "11111111-1111-1111-1111-111111111111", "admin", 60)
	if err != nil {
		t.Fatal(err)
	}
	if status := request(t, app, token); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestRequireJWTReadsCookie(t *testing.T) {
	app := testApp()
	token, err := utils.SignJWT(testSecret, "11111111-1111-1111-1111-111111111111", "admin", 60)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "ss_token", Value: token})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 via cookie, got %d", resp.StatusCode)
	}
}
