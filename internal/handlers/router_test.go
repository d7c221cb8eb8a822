package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tolits3/PanelX-Backend/internal/logger"
	"github.com/Tolits3/PanelX-Backend/internal/repository/memory"
	"github.com/Tolits3/PanelX-Backend/internal/service/catalog"
	"github.com/Tolits3/PanelX-Backend/internal/service/chat"
	"github.com/Tolits3/PanelX-Backend/internal/service/ledger"
	"github.com/Tolits3/PanelX-Backend/internal/service/profile"
	"github.com/Tolits3/PanelX-Backend/internal/service/progress"
)

type stubChat struct{}

func (stubChat) Configured() bool { return false }
func (stubChat) Model() string    { return "" }
func (stubChat) Complete(context.Context, string) (string, error) {
	return "", fmt.Errorf("not configured")
}

type stubImages struct{}

func (stubImages) Configured() bool { return false }
func (stubImages) Generate(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("not configured")
}

// newTestServer runs the full router over in-memory storage
func newTestServer(t *testing.T, freeMode bool) *httptest.Server {
	t.Helper()

	storage := memory.NewStorage()
	log := logger.NewLogger(logger.LevelError)

	ledgerService := ledger.NewService(ledger.Config{FreeMode: freeMode, InitialGrant: 1000}, storage)
	chatService := chat.NewService(stubChat{}, stubImages{}, ledgerService, log)

	avatars, err := profile.NewAvatarStore(t.TempDir())
	require.NoError(t, err)

	router := NewRouter(
		ledgerService,
		profile.NewService(storage.Profile()),
		avatars,
		catalog.NewService(storage.Series()),
		progress.NewService(storage.Progress()),
		chatService,
		log,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	decoded := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "response should be json: %s", raw)
	}

	return resp, decoded
}

func TestRouter_Credits(t *testing.T) {
	t.Run("balance auto-initializes", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/credits/balance/user-1", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "user-1", body["uid"])
		assert.Equal(t, float64(1000), body["balance"])
		assert.Equal(t, true, body["free_mode"])
	})

	t.Run("init is idempotent", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/credits/init", map[string]any{"uid": "user-1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body["message"], "free credits")

		resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/credits/init", map[string]any{"uid": "user-1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "User already initialized", body["message"])
		assert.Equal(t, float64(1000), body["balance"])
	})

	t.Run("init without uid fails validation", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/credits/init", map[string]any{})

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "validation_failed", body["error"])
	})

	t.Run("use credits in free mode keeps balance", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/credits/use", map[string]any{
			"uid": "user-1", "amount": 5, "description": "batch render",
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(5), body["credits_used"])
		assert.Equal(t, float64(1000), body["new_balance"])
		assert.Equal(t, true, body["free_mode"])
	})

	t.Run("use credits in paid mode deducts", func(t *testing.T) {
		srv := newTestServer(t, false)

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/credits/use", map[string]any{
			"uid": "user-1", "amount": 5,
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(995), body["new_balance"])
	})

	t.Run("insufficient credits pay required", func(t *testing.T) {
		srv := newTestServer(t, false)

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/credits/use", map[string]any{
			"uid": "user-1", "amount": 5000,
		})

		require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
		assert.Contains(t, body["message"], "Insufficient credits")
		assert.Contains(t, body["message"], "Have 1000, need 5000")
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		srv := newTestServer(t, false)

		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/credits/use", map[string]any{
			"uid": "user-1", "amount": -5,
		})

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("grant adds credits", func(t *testing.T) {
		srv := newTestServer(t, false)

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/credits/grant", map[string]any{
			"uid": "user-1", "amount": 500, "payment_id": "pay_42",
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(1500), body["new_balance"])
	})

	t.Run("history lists transactions newest first", func(t *testing.T) {
		srv := newTestServer(t, false)

		_, _ = doJSON(t, http.MethodPost, srv.URL+"/api/credits/use", map[string]any{"uid": "user-1", "amount": 5})

		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/credits/history/user-1", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(2), body["total"])

		transactions, ok := body["transactions"].([]any)
		require.True(t, ok)
		require.Len(t, transactions, 2)

		first, ok := transactions[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "usage", first["type"])
		assert.Equal(t, float64(-5), first["amount"])
		assert.Equal(t, float64(995), first["balance_after"])
	})

	t.Run("packages", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/credits/packages", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["free_mode"])

		packages, ok := body["packages"].([]any)
		require.True(t, ok)
		require.Len(t, packages, 1)

		pack, ok := packages[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "free", pack["id"])
		assert.Equal(t, "FREE", pack["price_display"])
	})

	t.Run("status reflects mode", func(t *testing.T) {
		srv := newTestServer(t, false)

		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/credits/status", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, false, body["free_mode"])
		assert.Equal(t, true, body["payments_enabled"])
		assert.Equal(t, float64(1000), body["free_credits"])
	})
}

func TestRouter_Users(t *testing.T) {
	createUser := func(t *testing.T, srv *httptest.Server, uid string, email string) map[string]any {
		t.Helper()
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/users/create", map[string]any{
			"uid": uid, "email": email, "role": "creator",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return body
	}

	t.Run("create derives username", func(t *testing.T) {
		srv := newTestServer(t, true)

		body := createUser(t, srv, "uid-1", "sam@example.com")

		assert.Equal(t, true, body["success"])
		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "sam", user["username"])
	})

	t.Run("duplicate create reports already exists", func(t *testing.T) {
		srv := newTestServer(t, true)
		createUser(t, srv, "uid-1", "sam@example.com")

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/users/create", map[string]any{
			"uid": "uid-1", "email": "sam@example.com", "role": "creator",
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "User already exists", body["message"])
	})

	t.Run("invalid role fails validation", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/users/create", map[string]any{
			"uid": "uid-1", "email": "sam@example.com", "role": "admin",
		})

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("get and update", func(t *testing.T) {
		srv := newTestServer(t, true)
		createUser(t, srv, "uid-1", "sam@example.com")

		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/users/uid-1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "User found", body["message"])

		resp, body = doJSON(t, http.MethodPut, srv.URL+"/api/users/uid-1", map[string]any{"bio": "Comic fan"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Comic fan", user["bio"])
	})

	t.Run("get missing user", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/users/ghost", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("username availability", func(t *testing.T) {
		srv := newTestServer(t, true)
		createUser(t, srv, "uid-1", "sam@example.com")

		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/users/username/sam", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, false, body["available"])

		resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/users/username/fresh", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["available"])
	})

	t.Run("delete", func(t *testing.T) {
		srv := newTestServer(t, true)
		createUser(t, srv, "uid-1", "sam@example.com")

		resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/users/uid-1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/users/uid-1", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRouter_AvatarUpload(t *testing.T) {
	uploadAvatar := func(t *testing.T, srv *httptest.Server, uid string, filename string, contentType string, content []byte) (*http.Response, map[string]any) {
		t.Helper()

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)},
			"Content-Type":        {contentType},
		})
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/users/"+uid+"/avatar", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck

		decoded := map[string]any{}
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &decoded), "response should be json: %s", raw)
		}
		return resp, decoded
	}

	createUser := func(t *testing.T, srv *httptest.Server, uid string) {
		t.Helper()
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/users/create", map[string]any{
			"uid": uid, "email": uid + "@example.com", "role": "creator",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	t.Run("upload updates profile and serves the file", func(t *testing.T) {
		srv := newTestServer(t, true)
		createUser(t, srv, "uid-1")

		resp, body := uploadAvatar(t, srv, "uid-1", "me.png", "image/png", []byte("png-bytes"))

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Avatar uploaded successfully", body["message"])
		assert.Equal(t, "/avatars/uid-1.png", body["avatar_url"])

		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "/avatars/uid-1.png", user["avatar_url"])

		fileResp, err := http.Get(srv.URL + "/avatars/uid-1.png")
		require.NoError(t, err)
		defer fileResp.Body.Close() //nolint:errcheck
		require.Equal(t, http.StatusOK, fileResp.StatusCode)
		served, err := io.ReadAll(fileResp.Body)
		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), served)
	})

	t.Run("non-image content type is rejected", func(t *testing.T) {
		srv := newTestServer(t, true)
		createUser(t, srv, "uid-1")

		resp, body := uploadAvatar(t, srv, "uid-1", "notes.txt", "text/plain", []byte("hello"))

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid file type. Only images allowed.", body["message"])
	})

	t.Run("unknown user", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, body := uploadAvatar(t, srv, "ghost", "me.png", "image/png", []byte("png-bytes"))

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "User not found", body["message"])
	})
}

func TestRouter_Series(t *testing.T) {
	createSeries := func(t *testing.T, srv *httptest.Server) string {
		t.Helper()
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/series/create", map[string]any{
			"creator_uid": "creator-1", "title": "Space Cats",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		series, ok := body["series"].(map[string]any)
		require.True(t, ok)
		id, ok := series["id"].(string)
		require.True(t, ok)
		return id
	}

	t.Run("create and fetch", func(t *testing.T) {
		srv := newTestServer(t, true)
		id := createSeries(t, srv)

		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/series/"+id, nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		series, ok := body["series"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Space Cats", series["title"])
		assert.Equal(t, false, series["is_published"])
	})

	t.Run("publish toggle and listing", func(t *testing.T) {
		srv := newTestServer(t, true)
		id := createSeries(t, srv)

		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/series/all", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, body["series"], "drafts should be hidden")

		resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/series/"+id+"/publish", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["is_published"])
		assert.Equal(t, "Series published successfully", body["message"])

		resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/series/all", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list, ok := body["series"].([]any)
		require.True(t, ok)
		require.Len(t, list, 1)
	})

	t.Run("episode lifecycle", func(t *testing.T) {
		srv := newTestServer(t, true)
		id := createSeries(t, srv)

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/series/episode/create", map[string]any{
			"series_id": id, "creator_uid": "creator-1", "title": "Pilot",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		episode, ok := body["episode"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(1), episode["episode_number"])
		episodeID, ok := episode["id"].(string)
		require.True(t, ok)

		resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/series/episode/"+episodeID+"/panels/save", map[string]any{
			"panels": []map[string]any{
				{"image_url": "https://img/1.png", "dialogues": []string{"Hi"}},
				{"image_url": "https://img/2.png"},
			},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(2), body["panels_saved"])

		resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/series/episode/"+episodeID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		episode, ok = body["episode"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "https://img/1.png", episode["thumbnail_url"], "first panel should become the thumbnail")
		panels, ok := episode["panels"].([]any)
		require.True(t, ok)
		require.Len(t, panels, 2)
	})

	t.Run("unknown series and bad ids", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/series/4aa4b261-6a8f-4f21-8b52-f9e345b0a1ba", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/series/not-a-uuid", nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRouter_Progress(t *testing.T) {
	seriesID := "4aa4b261-6a8f-4f21-8b52-f9e345b0a1ba"
	episodeID := "58e9f3a1-0c7d-4d0e-8e41-62b1a7e6c9d0"

	t.Run("update then fetch", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/progress/update", map[string]any{
			"user_id": "reader-1", "series_id": seriesID, "episode_id": episodeID, "page_number": 4,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Progress updated successfully", body["message"])

		resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/progress/reader-1/"+seriesID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list, ok := body["progress"].([]any)
		require.True(t, ok)
		require.Len(t, list, 1)

		entry, ok := list[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(4), entry["page_number"])
	})

	t.Run("clear", func(t *testing.T) {
		srv := newTestServer(t, true)

		_, _ = doJSON(t, http.MethodPost, srv.URL+"/api/progress/update", map[string]any{
			"user_id": "reader-1", "series_id": seriesID, "episode_id": episodeID,
		})

		resp, body := doJSON(t, http.MethodDelete, srv.URL+"/api/progress/reader-1/"+seriesID+"/"+episodeID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])

		resp, body = doJSON(t, http.MethodDelete, srv.URL+"/api/progress/reader-1/"+seriesID+"/"+episodeID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, false, body["success"], "second clear should report nothing to do")
	})
}

func TestRouter_Chat(t *testing.T) {
	t.Run("message with unconfigured providers degrades", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/chat/message", map[string]any{
			"uid": "user-1", "message": "How do I draw hands?",
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])
		assert.NotEmpty(t, body["response"])
		assert.Equal(t, false, body["image_generated"])
	})

	t.Run("generate-image without provider is unavailable", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/chat/generate-image", map[string]any{
			"prompt": "a dragon over the city",
		})

		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "Image generation unavailable. Replicate API key not configured.", body["message"])
	})

	t.Run("generate-image requires a prompt", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/chat/generate-image", map[string]any{})

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("health", func(t *testing.T) {
		srv := newTestServer(t, true)

		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/chat/health", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "online", body["status"])
		assert.Equal(t, false, body["groq_configured"])
		assert.Equal(t, false, body["replicate_configured"])
		assert.Nil(t, body["model"])
	})
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t, true)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/health", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "panelx-backend", body["service"])
}
