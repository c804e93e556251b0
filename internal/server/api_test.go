package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"pcoscare/internal/assistant"
	"pcoscare/internal/config"
	"pcoscare/internal/models"
	"pcoscare/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGenerator struct {
	reply string
}

func (g *fakeGenerator) Generate(_ context.Context, turns []assistant.Turn) (string, error) {
	if len(turns) == 0 {
		return "", assistant.ErrEmptyReply
	}
	return g.reply, nil
}

type apiHarness struct {
	t            *testing.T
	app          *fiber.App
	srv          *Server
	db           *gorm.DB
	predictCalls atomic.Int32
	reportCalls  atomic.Int32
}

func newAPIHarness(t *testing.T, generator assistant.Generator) *apiHarness {
	t.Helper()
	h := &apiHarness{t: t, db: testutil.NewSQLiteDB(t)}

	ml := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/predict":
			h.predictCalls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"prediction":1,"probabilities":{"no_pcos":0.27,"pcos":0.73},`+
				`"top_features":[["Weight (Kg)",0.05],["Cycle(R/I)",-0.41],["BMI",0.22]]}`)
		case "/generate-report":
			h.reportCalls.Add(1)
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = io.WriteString(w, "%PDF-1.4 fake report")
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ml.Close)

	cfg := &config.Config{
		JWTSecret:    testSecret,
		MLServiceURL: ml.URL,
	}
	srv, err := NewServerWithDeps(cfg, h.db, nil, generator)
	require.NoError(t, err)
	h.srv = srv
	h.app = srv.NewApp()
	return h
}

func (h *apiHarness) tokenFor(u *models.User) string {
	h.t.Helper()
	token, err := h.srv.generateToken(u.ID)
	require.NoError(h.t, err)
	return token
}

func (h *apiHarness) do(method, path, token string, body any) (*http.Response, []byte) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp, data
}

func decodeInto[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func screeningBody() map[string]any {
	in := testutil.FullScreening()
	body := map[string]any{}
	for _, f := range models.ScreeningFeatures {
		v, _ := f.Value(&in)
		body[f.WireKey] = v
	}
	return body
}

func TestAPI_PredictionRoundTrip(t *testing.T) {
	h := newAPIHarness(t, nil)
	user := testutil.CreateUser(t, h.db, false)
	token := h.tokenFor(user)

	resp, data := h.do(http.MethodPost, "/api/predictions", token, screeningBody())
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	created := decodeInto[map[string]any](t, data)
	assert.Equal(t, float64(1), created["prediction"])
	top, ok := created["topFeatures"].([]any)
	require.True(t, ok)
	require.Len(t, top, 3)
	assert.Equal(t, "Cycle(R/I)", top[0].([]any)[0], "impacts sorted by magnitude")
	assert.EqualValues(t, 1, h.predictCalls.Load())

	id := uint(created["id"].(float64))

	resp, data = h.do(http.MethodGet, "/api/predictions/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decodeInto[[]map[string]any](t, data)
	require.Len(t, history, 1)
	assert.Equal(t, created["id"], history[0]["id"])

	resp, data = h.do(http.MethodPost, fmt.Sprintf("/api/predictions/%d/report", id), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, fmt.Sprintf("attachment; filename=pcos_report_%d.pdf", id), resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4 fake report", string(data))

	resp, data = h.do(http.MethodGet, fmt.Sprintf("/api/predictions/%d", id), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stored := decodeInto[map[string]any](t, data)
	assert.Equal(t, fmt.Sprintf("/api/predictions/%d/report", id), stored["reportUrl"])

	other := testutil.CreateUser(t, h.db, false)
	resp, _ = h.do(http.MethodGet, fmt.Sprintf("/api/predictions/%d", id), h.tokenFor(other), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_PredictionMissingFeatureSkipsInference(t *testing.T) {
	h := newAPIHarness(t, nil)
	token := h.tokenFor(testutil.CreateUser(t, h.db, false))

	body := screeningBody()
	delete(body, "BMI")

	resp, data := h.do(http.MethodPost, "/api/predictions", token, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "BMI")
	assert.EqualValues(t, 0, h.predictCalls.Load())

	resp, data = h.do(http.MethodGet, "/api/predictions/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(data))
}

func TestAPI_PredictionNonFiniteValueIsBadRequest(t *testing.T) {
	h := newAPIHarness(t, nil)
	token := h.tokenFor(testutil.CreateUser(t, h.db, false))

	body := screeningBody()
	body[" Age (yrs)"] = "NaN"
	body["BMI"] = "Infinity"

	resp, data := h.do(http.MethodPost, "/api/predictions", token, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(data))
	assert.Contains(t, string(data), "Invalid screening data")
	assert.EqualValues(t, 0, h.predictCalls.Load())
}

func TestAPI_PredictionRequiresAuth(t *testing.T) {
	h := newAPIHarness(t, nil)

	resp, data := h.do(http.MethodPost, "/api/predictions", "", screeningBody())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "No authentication token, access denied", decodeInto[map[string]any](t, data)["message"])
	assert.EqualValues(t, 0, h.predictCalls.Load())
}

func TestAPI_AppointmentLifecycle(t *testing.T) {
	h := newAPIHarness(t, nil)
	member := testutil.CreateUser(t, h.db, false)
	admin := testutil.CreateUser(t, h.db, true)
	expert := testutil.CreateExpert(t, h.db, "Endocrinologist", "Pune", 4.6)
	memberToken, adminToken := h.tokenFor(member), h.tokenFor(admin)

	resp, data := h.do(http.MethodPost, "/api/appointments", memberToken, map[string]any{
		"expertId": expert.ID,
		"date":     "2026-11-03",
		"timeSlot": "10:00 AM",
		"notes":    "Irregular cycles for a year",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	booked := decodeInto[map[string]any](t, data)
	assert.Equal(t, "Pending", booked["status"])
	id := uint(booked["id"].(float64))

	resp, _ = h.do(http.MethodGet, "/api/appointments/admin/all", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(http.MethodPatch, fmt.Sprintf("/api/appointments/%d/status", id), memberToken, map[string]any{"status": "Confirmed"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = h.do(http.MethodPatch, fmt.Sprintf("/api/appointments/%d/status", id), adminToken, map[string]any{"status": "Confirmed"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, data = h.do(http.MethodGet, "/api/appointments/my", memberToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mine := decodeInto[[]map[string]any](t, data)
	require.Len(t, mine, 1)
	assert.Equal(t, "Confirmed", mine[0]["status"])

	resp, _ = h.do(http.MethodPatch, fmt.Sprintf("/api/appointments/%d/status", id), adminToken, map[string]any{"status": "Pending"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, data = h.do(http.MethodGet, "/api/appointments/admin/all", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeInto[[]map[string]any](t, data), 1)
}

func TestAPI_ContactVisibleToAdminOnly(t *testing.T) {
	h := newAPIHarness(t, nil)
	member := testutil.CreateUser(t, h.db, false)
	admin := testutil.CreateUser(t, h.db, true)

	resp, data := h.do(http.MethodPost, "/api/contact", "", map[string]any{
		"name":    "Priya",
		"email":   "priya@example.com",
		"subject": "Clinic hours",
		"message": "Are weekend consultations available?",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	assert.Equal(t, "Message sent successfully!", decodeInto[map[string]any](t, data)["message"])

	resp, _ = h.do(http.MethodGet, "/api/contact", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = h.do(http.MethodGet, "/api/contact", h.tokenFor(member), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = h.do(http.MethodGet, "/api/contact", h.tokenFor(admin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	contacts := decodeInto[[]map[string]any](t, data)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Clinic hours", contacts[0]["subject"])
}

func TestAPI_CommunityLikesAndComments(t *testing.T) {
	h := newAPIHarness(t, nil)
	author := testutil.CreateUser(t, h.db, false)
	reader := testutil.CreateUser(t, h.db, false)
	authorToken, readerToken := h.tokenFor(author), h.tokenFor(reader)

	resp, data := h.do(http.MethodPost, "/api/posts", authorToken, map[string]any{
		"content": "Swapping white rice for millet helped my cravings.",
		"group":   models.GroupRecipes,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	postID := uint(decodeInto[map[string]any](t, data)["id"].(float64))
	likePath := fmt.Sprintf("/api/posts/%d/like", postID)

	for i, want := range []struct {
		liked bool
		count float64
	}{{true, 1}, {false, 0}, {true, 1}} {
		resp, data = h.do(http.MethodPost, likePath, readerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		state := decodeInto[map[string]any](t, data)
		assert.Equal(t, want.liked, state["liked"], "toggle %d", i)
		assert.Equal(t, want.count, state["likesCount"], "toggle %d", i)
	}

	resp, data = h.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", postID), readerToken, map[string]any{"content": "Trying this week!"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	commentID := uint(decodeInto[map[string]any](t, data)["id"].(float64))

	resp, data = h.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", postID), readerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	post := decodeInto[map[string]any](t, data)
	assert.Equal(t, float64(1), post["commentsCount"])
	assert.Equal(t, float64(1), post["likesCount"])
	assert.Equal(t, true, post["liked"])

	resp, _ = h.do(http.MethodPut, fmt.Sprintf("/api/posts/%d", postID), readerToken, map[string]any{"content": "hijacked"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(http.MethodDelete, fmt.Sprintf("/api/posts/%d/comments/%d", postID, commentID), authorToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = h.do(http.MethodDelete, fmt.Sprintf("/api/posts/%d/comments/%d", postID, commentID), readerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, data = h.do(http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", postID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(data))
}

func TestAPI_CatalogWritesRequireAdmin(t *testing.T) {
	h := newAPIHarness(t, nil)
	member := testutil.CreateUser(t, h.db, false)
	admin := testutil.CreateUser(t, h.db, true)

	expert := map[string]any{
		"name":         "Dr. Meera Rao",
		"specialty":    "Gynecologist",
		"location":     "Bengaluru",
		"contactEmail": "meera@example.com",
		"rating":       4.8,
	}

	resp, _ := h.do(http.MethodPost, "/api/experts", "", expert)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = h.do(http.MethodPost, "/api/experts", h.tokenFor(member), expert)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data := h.do(http.MethodPost, "/api/experts", h.tokenFor(admin), expert)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	resp, data = h.do(http.MethodGet, "/api/experts?specialty=Gynecologist&location=bengal", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeInto[[]map[string]any](t, data), 1)
}

func TestAPI_Chat(t *testing.T) {
	t.Run("unconfigured assistant", func(t *testing.T) {
		h := newAPIHarness(t, nil)
		resp, _ := h.do(http.MethodPost, "/api/chat", "", map[string]any{"message": "What is PCOS?"})
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("reply", func(t *testing.T) {
		h := newAPIHarness(t, &fakeGenerator{reply: "PCOS is a common hormonal condition."})
		resp, data := h.do(http.MethodPost, "/api/chat", "", map[string]any{
			"message": "What is PCOS?",
			"history": []map[string]any{{"type": "user", "text": "hi"}, {"type": "ai", "text": "Hello!"}},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
		assert.Equal(t, "PCOS is a common hormonal condition.", decodeInto[map[string]any](t, data)["text"])
	})

	t.Run("empty message", func(t *testing.T) {
		h := newAPIHarness(t, &fakeGenerator{reply: "unused"})
		resp, _ := h.do(http.MethodPost, "/api/chat", "", map[string]any{"message": "  "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAPI_AuthFlow(t *testing.T) {
	h := newAPIHarness(t, nil)

	resp, data := h.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Asha",
		"email":    "asha@example.com",
		"password": "secret12",
		"isAdmin":  true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	resp, data = h.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "asha@example.com", "password": "secret12"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	login := decodeInto[map[string]any](t, data)
	token := login["token"].(string)

	resp, data = h.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeInto[map[string]any](t, data)
	assert.Equal(t, "asha@example.com", me["email"])
	assert.Equal(t, false, me["isAdmin"])
	assert.NotContains(t, me, "password")

	resp, _ = h.do(http.MethodGet, "/api/appointments/admin/all", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_UnknownPathIsNotFound(t *testing.T) {
	h := newAPIHarness(t, nil)
	member := h.tokenFor(testutil.CreateUser(t, h.db, false))

	for _, token := range []string{"", member} {
		resp, data := h.do(http.MethodGet, "/api/nonexistent", token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, string(data))
	}

	resp, _ := h.do(http.MethodGet, "/api/predictions/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = h.do(http.MethodDelete, "/api/experts/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = h.do(http.MethodDelete, "/api/experts/1", member, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
