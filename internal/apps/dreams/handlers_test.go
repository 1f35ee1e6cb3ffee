package dreams

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testServer struct {
	app    *fiber.App
	plugin *DreamsPlugin
}

func newTestServer(t *testing.T, collab Collaborators) *testServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:    testSecret,
		Timezone:     "UTC",
		BlockedWords: []string{"forbidden"},
	}
	db := testutil.NewDB(t, &Dream{})
	plugin := New(collab)

	app := fiber.New()
	plugin.RegisterRoutes(app.Group("/api/p", middleware.JWTProtected(cfg)), db, cfg)
	return &testServer{app: app, plugin: plugin}
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (s *testServer) do(t *testing.T, userID uuid.UUID, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != uuid.Nil {
		req.Header.Set("Authorization", bearer(t, userID))
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestDreamHandlers_RequireAuth(t *testing.T) {
	srv := newTestServer(t, Collaborators{})

	for _, path := range []string{"/api/p/dreams", "/api/p/dreams/stats", "/api/p/dreams/events"} {
		resp := srv.do(t, uuid.Nil, http.MethodGet, path, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestDreamHandlers_CRUD(t *testing.T) {
	srv := newTestServer(t, Collaborators{})
	userID := uuid.New()

	resp := srv.do(t, userID, http.MethodPost, "/api/p/dreams", map[string]interface{}{
		"title":   "Flying",
		"content": "Over the city",
		"tags":    []string{"flying", "city", "flying"},
		"mood":    "excited",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decode[Dream](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"flying", "city"}, created.Tags)

	resp = srv.do(t, userID, http.MethodGet, "/api/p/dreams/"+created.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Flying", decode[Dream](t, resp).Title)

	resp = srv.do(t, userID, http.MethodPut, "/api/p/dreams/"+created.ID, map[string]interface{}{
		"is_lucid": true,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, decode[Dream](t, resp).IsLucid)

	resp = srv.do(t, userID, http.MethodGet, "/api/p/dreams?q=CITY", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decode[DreamListResponse](t, resp)
	assert.Equal(t, 1, list.Total)

	// Another user cannot see it.
	resp = srv.do(t, uuid.New(), http.MethodGet, "/api/p/dreams/"+created.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = srv.do(t, userID, http.MethodDelete, "/api/p/dreams/"+created.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = srv.do(t, userID, http.MethodDelete, "/api/p/dreams/"+created.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDreamHandlers_ValidationErrors(t *testing.T) {
	srv := newTestServer(t, Collaborators{})
	userID := uuid.New()

	tests := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{name: "missing title", body: map[string]interface{}{"content": "c"}, want: ErrTitleRequired.Error()},
		{name: "bad mood", body: map[string]interface{}{"title": "t", "content": "c", "mood": "angry"}, want: ErrInvalidMood.Error()},
		{name: "blocked word", body: map[string]interface{}{"title": "t", "content": "forbidden"}, want: ErrContentInappropriate.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, userID, http.MethodPost, "/api/p/dreams", tt.body)
			require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			body := decode[dto.ErrorResponse](t, resp)
			assert.True(t, body.Error)
			assert.Equal(t, tt.want, body.Message)
		})
	}

	resp := srv.do(t, userID, http.MethodGet, "/api/p/dreams?month=2026-3", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDreamHandlers_StatsMonthsAndClear(t *testing.T) {
	srv := newTestServer(t, Collaborators{})
	userID := uuid.New()
	today := time.Now().UTC()

	for i, mood := range []string{"happy", "sad", "neutral"} {
		resp := srv.do(t, userID, http.MethodPost, "/api/p/dreams", map[string]interface{}{
			"title":   "t",
			"content": "c",
			"mood":    mood,
			"tags":    []string{"recurring"},
			"date":    today.AddDate(0, 0, -i).Format(time.RFC3339),
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp := srv.do(t, userID, http.MethodGet, "/api/p/dreams/stats", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	stats := decode[DreamStats](t, resp)
	assert.Equal(t, 3, stats.TotalDreams)
	assert.Equal(t, 1, stats.PositiveDreams)
	assert.Equal(t, []ThemeCount{{Tag: "recurring", Count: 3}}, stats.RecurringThemes)
	require.Len(t, stats.MoodDistribution, 3)
	assert.Equal(t, "Positive", stats.MoodDistribution[0].Label)

	resp = srv.do(t, userID, http.MethodGet, "/api/p/dreams/months", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	months := decode[map[string][]MonthGroup](t, resp)
	total := 0
	for _, m := range months["months"] {
		total += m.Count
	}
	assert.Equal(t, 3, total)

	resp = srv.do(t, userID, http.MethodDelete, "/api/p/dreams", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), decode[ClearResponse](t, resp).Deleted)

	resp = srv.do(t, userID, http.MethodGet, "/api/p/dreams/stats", nil)
	assert.Zero(t, decode[DreamStats](t, resp).TotalDreams)
}

func TestDreamHandlers_ExportImport(t *testing.T) {
	srv := newTestServer(t, Collaborators{})
	alice, bob := uuid.New(), uuid.New()

	resp := srv.do(t, alice, http.MethodPost, "/api/p/dreams", map[string]interface{}{"title": "Shared", "content": "dream"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = srv.do(t, alice, http.MethodGet, "/api/p/dreams/export", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "dreams.json")
	export := decode[ExportResponse](t, resp)
	require.Len(t, export.Dreams, 1)

	resp = srv.do(t, bob, http.MethodPost, "/api/p/dreams/import", ImportRequest{Dreams: export.Dreams})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[ImportResponse](t, resp).Imported)

	resp = srv.do(t, bob, http.MethodGet, "/api/p/dreams", nil)
	list := decode[DreamListResponse](t, resp)
	require.Len(t, list.Dreams, 1)
	assert.Equal(t, "Shared", list.Dreams[0].Title)
}

func TestDreamHandlers_AIRoutes(t *testing.T) {
	interpreter := &fakeInterpreter{analysis: "A calm mind.", recs: []string{"Rest well."}}
	srv := newTestServer(t, Collaborators{
		Interpreter: interpreter,
		Illustrator: &fakeIllustrator{ref: "/media/dreams/01J.webp"},
	})
	userID := uuid.New()

	resp := srv.do(t, userID, http.MethodPost, "/api/p/dreams", map[string]interface{}{"title": "Lake", "content": "Still water"})
	created := decode[Dream](t, resp)

	resp = srv.do(t, userID, http.MethodPost, "/api/p/dreams/"+created.ID+"/analysis", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, AnalysisResponse{DreamID: created.ID, Analysis: "A calm mind."}, decode[AnalysisResponse](t, resp))

	resp = srv.do(t, userID, http.MethodPost, "/api/p/dreams/"+created.ID+"/recommendations", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Rest well."}, decode[RecommendationsResponse](t, resp).Recommendations)

	resp = srv.do(t, userID, http.MethodPost, "/api/p/dreams/missing/analysis", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = srv.do(t, userID, http.MethodPost, "/api/p/dreams/images", GenerateImageRequest{Title: "Lake"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/media/dreams/01J.webp", decode[GenerateImageResponse](t, resp).Image)

	resp = srv.do(t, userID, http.MethodPost, "/api/p/dreams/images", GenerateImageRequest{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDreamHandlers_AIUnavailable(t *testing.T) {
	srv := newTestServer(t, Collaborators{})
	userID := uuid.New()

	resp := srv.do(t, userID, http.MethodPost, "/api/p/dreams", map[string]interface{}{"title": "t", "content": "c"})
	created := decode[Dream](t, resp)

	resp = srv.do(t, userID, http.MethodPost, "/api/p/dreams/"+created.ID+"/analysis", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	resp = srv.do(t, userID, http.MethodPost, "/api/p/dreams/images", GenerateImageRequest{Title: "t"})
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestDreamHandlers_Transcribe(t *testing.T) {
	transcriber := &fakeTranscriber{}
	srv := newTestServer(t, Collaborators{Transcriber: transcriber})
	userID := uuid.New()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("audio", "dream.m4a")
	require.NoError(t, err)
	_, err = part.Write([]byte("un long couloir"))
	require.NoError(t, err)
	require.NoError(t, form.WriteField("language", "fr"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/p/dreams/transcribe", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, userID))
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "UN LONG COULOIR", decode[TranscriptionResponse](t, resp).Text)
	assert.Equal(t, "fr", transcriber.language)

	req = httptest.NewRequest(http.MethodPost, "/api/p/dreams/transcribe", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, userID))
	resp, err = srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDreamHandlers_EventsStreamEndsOnShutdown(t *testing.T) {
	srv := newTestServer(t, Collaborators{})
	srv.plugin.Shutdown()

	resp := srv.do(t, uuid.New(), http.MethodGet, "/api/p/dreams/events", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get(fiber.HeaderContentType))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), ": connected")
}
