package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dilemmas/internal/auth"
	"dilemmas/internal/router"
	"dilemmas/internal/services"
	"dilemmas/internal/testutil"
	"dilemmas/internal/utils"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLimit = 2

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	repo   *testutil.MemStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := testutil.NewMemStore()
	tokens, err := auth.NewTokenIssuer("router-test-secret", time.Hour)
	require.NoError(t, err)
	cache, err := utils.NewCache(32)
	require.NoError(t, err)
	moderation, err := services.NewModerationService(repo, testLimit, nil)
	require.NoError(t, err)

	r := gin.New()
	router.RegisterRoutes(r, router.Deps{
		Sessions:      cookie.NewStore([]byte("router-test-session-key")),
		Tokens:        tokens,
		Accounts:      services.NewAccountService(repo, tokens),
		Dilemmas:      services.NewDilemmaService(repo, cache, time.Minute),
		Voting:        services.NewVotingService(repo, cache),
		Moderation:    moderation,
		Notifications: services.NewNotificationService(repo),
	})
	return &testServer{t: t, engine: r, repo: repo}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *testServer) register(name string) (token string, userID uint) {
	s.t.Helper()

	w, env := s.do(http.MethodPost, "/api/register", "", gin.H{
		"name":     name,
		"email":    name + "@example.com",
		"password": "secret1",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var session struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &session))
	return session.Token, session.User.ID
}

func (s *testServer) createDilemma(token, title string) uint {
	s.t.Helper()

	w, env := s.do(http.MethodPost, "/api/dilemmas", token, gin.H{
		"title":       title,
		"description": "Pick **one**",
		"option_a":    "Tea",
		"option_b":    "Coffee",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var d struct {
		ID uint `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &d))
	return d.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/dilemmas"},
		{http.MethodPut, "/api/dilemmas/1"},
		{http.MethodDelete, "/api/dilemmas/1"},
		{http.MethodPost, "/api/dilemmas/1/respond"},
		{http.MethodGet, "/api/my-responses"},
		{http.MethodPost, "/api/dilemmas/1/denounce"},
		{http.MethodGet, "/api/denounced-dilemmas"},
		{http.MethodGet, "/api/dilemmas/1/denunciations"},
		{http.MethodGet, "/api/notifications"},
		{http.MethodPost, "/api/notifications/1/read"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w, env := s.do(rt.method, rt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.RequestID)
		})
	}

	// A forged token is treated as no token at all.
	w, _ := s.do(http.MethodGet, "/api/my-responses", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVoteFlow(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := s.register("owner")
	voterToken, _ := s.register("voter")
	id := s.createDilemma(ownerToken, "Tea or coffee?")
	path := fmt.Sprintf("/api/dilemmas/%d", id)

	w, env := s.do(http.MethodPost, path+"/respond", voterToken, gin.H{"chosen_option": "B"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var vote services.VoteResult
	require.NoError(t, json.Unmarshal(env.Data, &vote))
	assert.Equal(t, "B", vote.ChosenOption)
	assert.Equal(t, 100, vote.Statistics.PercentageB)

	w, env = s.do(http.MethodPost, path+"/respond", voterToken, gin.H{"chosen_option": "A"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "you have already voted on this dilemma", env.Message)

	w, _ = s.do(http.MethodPost, path+"/respond", ownerToken, gin.H{"chosen_option": "C"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/dilemmas/999/respond", voterToken, gin.H{"chosen_option": "A"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPost, "/api/dilemmas/abc/respond", voterToken, gin.H{"chosen_option": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodGet, path, voterToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		UserResponse    *string        `json:"user_response"`
		UserDenounced   bool           `json:"user_denounced"`
		DescriptionHTML string         `json:"description_html"`
		Statistics      services.Stats `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.NotNil(t, detail.UserResponse)
	assert.Equal(t, "B", *detail.UserResponse)
	assert.False(t, detail.UserDenounced)
	assert.Contains(t, detail.DescriptionHTML, "<strong>one</strong>")
	assert.EqualValues(t, 1, detail.Statistics.TotalVotes)

	w, env = s.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Nil(t, detail.UserResponse)

	w, env = s.do(http.MethodGet, "/api/my-responses", voterToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "Tea or coffee?", mine[0]["title"])
}

func TestModerationFlow(t *testing.T) {
	s := newTestServer(t)
	ownerToken, ownerID := s.register("owner")
	firstToken, _ := s.register("first")
	secondToken, _ := s.register("second")
	id := s.createDilemma(ownerToken, "Spam?")
	path := fmt.Sprintf("/api/dilemmas/%d", id)

	// No body at all is a valid denunciation.
	w, env := s.do(http.MethodPost, path+"/denounce", firstToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res services.DenounceResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.DilemmaDeactivated)
	require.NotNil(t, res.Remaining)
	assert.Equal(t, 1, *res.Remaining)

	w, _ = s.do(http.MethodPost, path+"/denounce", firstToken, gin.H{"reason": "again"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = s.do(http.MethodPost, path+"/denounce", secondToken, gin.H{"reason": "spam"})
	require.Equal(t, http.StatusOK, w.Code)
	res = services.DenounceResult{}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.DilemmaDeactivated)
	assert.Equal(t, testLimit, res.TotalDenunciations)

	w, _ = s.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodPost, path+"/respond", firstToken, gin.H{"chosen_option": "A"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodGet, "/api/denounced-dilemmas", firstToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var denounced []struct {
		ID                    uint   `json:"id"`
		Active                bool   `json:"active"`
		CreatorName           string `json:"creator_name"`
		VerifiedDenunciations int64  `json:"verified_denunciations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &denounced))
	require.Len(t, denounced, 1)
	assert.Equal(t, id, denounced[0].ID)
	assert.False(t, denounced[0].Active)
	assert.Equal(t, "owner", denounced[0].CreatorName)
	assert.EqualValues(t, testLimit, denounced[0].VerifiedDenunciations)

	w, env = s.do(http.MethodGet, path+"/denunciations", firstToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0]["denouncer_name"])
	assert.Equal(t, "spam", list[0]["reason"])
	assert.Equal(t, "unspecified", list[1]["reason"])

	w, env = s.do(http.MethodGet, "/api/notifications", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notes []struct {
		ID     uint `json:"id"`
		UserID uint `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, ownerID, notes[0].UserID)

	readPath := fmt.Sprintf("/api/notifications/%d/read", notes[0].ID)
	w, _ = s.do(http.MethodPost, readPath, firstToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodPost, readPath, ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDilemmaOwnership(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := s.register("owner")
	otherToken, _ := s.register("other")
	id := s.createDilemma(ownerToken, "Tea or coffee?")
	path := fmt.Sprintf("/api/dilemmas/%d", id)

	w, _ := s.do(http.MethodPut, path, otherToken, gin.H{"title": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodPut, path, ownerToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, env := s.do(http.MethodPut, path, ownerToken, gin.H{"title": "Tea or cocoa?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Tea or cocoa?")

	w, _ = s.do(http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodDelete, path, ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/dilemmas", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestSessionLogin(t *testing.T) {
	s := newTestServer(t)
	s.register("ana")

	w, _ := s.do(http.MethodPost, "/api/login", "", gin.H{"email": "ana@example.com", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/login", "", gin.H{"email": "ana@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/my-responses", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterConflict(t *testing.T) {
	s := newTestServer(t)
	s.register("ana")

	w, env := s.do(http.MethodPost, "/api/register", "", gin.H{
		"name": "Ana", "email": "ana@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, env.Success)
}
