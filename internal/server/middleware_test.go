package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"pcoscare/internal/config"
	"pcoscare/internal/repository"
	"pcoscare/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	str, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return str
}

func claimsFor(userID uint, issuer, audience string, exp time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": issuer,
		"aud": audience,
		"exp": time.Now().Add(exp).Unix(),
		"jti": "test-jti-valid-length",
	}
}

func TestServer_AuthRequired(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	user := testutil.CreateUser(t, db, false)

	s := &Server{
		config:   &config.Config{JWTSecret: testSecret},
		userRepo: repository.NewUserRepository(db),
	}
	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": currentUserID(c), "email": currentUser(c).Email})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "Valid Token",
			authHeader:     "Bearer " + signTestToken(t, testSecret, claimsFor(user.ID, tokenIssuer, tokenAudience, time.Hour)),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Lowercase Scheme",
			authHeader:     "bearer " + signTestToken(t, testSecret, claimsFor(user.ID, tokenIssuer, tokenAudience, time.Hour)),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + signTestToken(t, testSecret, claimsFor(user.ID, tokenIssuer, tokenAudience, -time.Hour)),
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Token is not valid",
		},
		{
			name:           "Invalid Issuer",
			authHeader:     "Bearer " + signTestToken(t, testSecret, claimsFor(user.ID, "wrong-issuer", tokenAudience, time.Hour)),
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Token is not valid",
		},
		{
			name:           "Invalid Audience",
			authHeader:     "Bearer " + signTestToken(t, testSecret, claimsFor(user.ID, tokenIssuer, "wrong-audience", time.Hour)),
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Token is not valid",
		},
		{
			name:           "Wrong Secret",
			authHeader:     "Bearer " + signTestToken(t, "another-secret-another-secret-another-secret", claimsFor(user.ID, tokenIssuer, tokenAudience, time.Hour)),
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Token is not valid",
		},
		{
			name: "Missing Expiry",
			authHeader: "Bearer " + signTestToken(t, testSecret, jwt.MapClaims{
				"sub": strconv.FormatUint(uint64(user.ID), 10), "iss": tokenIssuer, "aud": tokenAudience,
			}),
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Token is not valid",
		},
		{
			name:           "Deleted User",
			authHeader:     "Bearer " + signTestToken(t, testSecret, claimsFor(user.ID+1000, tokenIssuer, tokenAudience, time.Hour)),
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Token is not valid",
		},
		{
			name:           "Missing Header",
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "No authentication token, access denied",
		},
		{
			name:           "Malformed Bearer Format",
			authHeader:     "BearerTokenOnly",
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "No authentication token, access denied",
		},
		{
			name: "Numeric Subject",
			authHeader: "Bearer " + signTestToken(t, testSecret, jwt.MapClaims{
				"sub": 123, "iss": tokenIssuer, "aud": tokenAudience, "exp": time.Now().Add(time.Hour).Unix(),
			}),
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Token is not valid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, float64(user.ID), body["userID"])
				assert.Equal(t, user.Email, body["email"])
			} else {
				assert.Equal(t, tt.expectedMsg, body["message"])
			}
		})
	}
}

func TestServer_AuthRequired_QueryTokenIgnored(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	user := testutil.CreateUser(t, db, false)
	s := &Server{
		config:   &config.Config{JWTSecret: testSecret},
		userRepo: repository.NewUserRepository(db),
	}
	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	token := signTestToken(t, testSecret, claimsFor(user.ID, tokenIssuer, tokenAudience, time.Hour))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_AdminRequired(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	member := testutil.CreateUser(t, db, false)
	admin := testutil.CreateUser(t, db, true)

	s := &Server{
		config:   &config.Config{JWTSecret: testSecret},
		userRepo: repository.NewUserRepository(db),
	}
	app := fiber.New()
	app.Get("/admin", s.AuthRequired(), s.AdminRequired(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/unguarded", s.AdminRequired(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	tests := []struct {
		name           string
		path           string
		userID         uint
		expectedStatus int
	}{
		{"admin passes", "/admin", admin.ID, http.StatusOK},
		{"member forbidden", "/admin", member.ID, http.StatusForbidden},
		{"no auth upstream", "/unguarded", 0, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.userID != 0 {
				req.Header.Set("Authorization", "Bearer "+signTestToken(t, testSecret, claimsFor(tt.userID, tokenIssuer, tokenAudience, time.Hour)))
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestServer_OptionalUserID(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testSecret}}
	app := fiber.New()
	app.Get("/maybe", func(c *fiber.Ctx) error {
		id, ok := s.optionalUserID(c)
		return c.JSON(fiber.Map{"id": id, "ok": ok})
	})

	tests := []struct {
		name   string
		header string
		wantOK bool
		wantID float64
	}{
		{"anonymous", "", false, 0},
		{"garbage token", "Bearer nope", false, 0},
		{"valid token", "Bearer " + signTestToken(t, testSecret, claimsFor(7, tokenIssuer, tokenAudience, time.Hour)), true, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantOK, body["ok"])
			assert.Equal(t, tt.wantID, body["id"])
		})
	}
}
