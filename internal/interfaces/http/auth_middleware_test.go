package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/cfdi-go/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/cfdi-go/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "EKU9003173C9"
	testIssuer    = "cfdi-go-test"
	testExpMin    = 60
)

// tokenForRole genera el header Authorization con un JWT del rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// buildTestGuardedApp expone GET /guarded detrás de AuthMiddleware y RequireRole(roles...).
// El handler devuelve los claims que dejó el middleware en c.Locals.
func buildTestGuardedApp(issuer string, roles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/guarded",
		apphttp.AuthMiddleware(testJWTSecret, issuer),
		apphttp.RequireRole(roles...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"user_id":    apphttp.GetUserID(c),
				"company_id": apphttp.GetCompanyID(c),
				"role":       apphttp.GetRole(c),
			})
		},
	)
	return app
}

func getGuarded(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// RequireRole sin roles: basta con que el token traiga uno
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRoleSinRoles_CualquierRolPasa(t *testing.T) {
	app := buildTestGuardedApp("")
	for _, role := range []string{"admin", "contador", "facturista"} {
		resp := getGuarded(t, app, tokenForRole(t, role))
		assert.Equal(t, http.StatusOK, resp.StatusCode, role)

		body := decodeBody(t, resp)
		resp.Body.Close()
		assert.Equal(t, role, body["role"])
		assert.Equal(t, testCompanyID, body["company_id"])
		assert.Equal(t, testUserID, body["user_id"])
	}
}

func TestRequireRoleSinRoles_TokenSinRol_Retorna401(t *testing.T) {
	resp := getGuarded(t, buildTestGuardedApp(""), tokenForRole(t, ""))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_ROLE", decodeBody(t, resp)["code"])
}

func TestRequireRole_RolNoPermitido_Retorna403(t *testing.T) {
	resp := getGuarded(t, buildTestGuardedApp("", "admin", "facturista"), tokenForRole(t, "contador"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeBody(t, resp)["code"])
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthMiddleware: formato del header y validación del token
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_Rechazos(t *testing.T) {
	otherIssuer, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, "admin", "otro-emisor", testExpMin)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema Basic", "Basic dXNlcjpwYXNz", "INVALID_TOKEN"},
		{"token malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"emisor distinto", "Bearer " + otherIssuer, "INVALID_TOKEN"},
	}
	app := buildTestGuardedApp(testIssuer)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := getGuarded(t, app, tc.header)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tc.code, decodeBody(t, resp)["code"])
		})
	}
}

func TestAuthMiddleware_EsquemaBearerSinDistinguirMayusculas(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, "admin", testIssuer, testExpMin)
	require.NoError(t, err)

	resp := getGuarded(t, buildTestGuardedApp(testIssuer), "bearer "+tok)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
