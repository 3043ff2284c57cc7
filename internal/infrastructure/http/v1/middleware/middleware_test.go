package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hesap/internal/core/apperror"
	"hesap/internal/core/id"
	"hesap/internal/domain/auth"
	"hesap/internal/infrastructure/policy"
	"hesap/internal/infrastructure/storage/postgres"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeValidator struct {
	claims *auth.Claims
}

func (v fakeValidator) ValidateToken(token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return v.claims, nil
}

type fakePolicy struct {
	allow bool
	err   error
}

func (p fakePolicy) Allow(*auth.Claims, policy.Request) (bool, error) {
	return p.allow, p.err
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_RendersAppError(t *testing.T) {
	r := gin.New()
	r.Use(Trace(), ErrorHandler())
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("invoice", "42"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, decodeError(t, w).Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	r := gin.New()
	r.Use(Trace(), ErrorHandler())
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: connection reset"))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, apperror.CodeInternal, body.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
	assert.Equal(t, "req-1", body.Details["request_id"])
}

func TestRecovery_ReturnsInternal(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), ErrorHandler())
	r.GET("/x", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, decodeError(t, w).Code)
}

func newScopedRouter(p BranchPolicy, claims *auth.Claims, handler gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler())
	g := r.Group("", Auth(fakeValidator{claims: claims}), Scope(p))
	g.Any("/x", handler)
	return r
}

func TestAuthAndScope(t *testing.T) {
	branch := id.New()
	claims := &auth.Claims{UserID: "u1", BranchID: branch.String(), Roles: []string{"accountant"}}

	var got string
	ok := func(c *gin.Context) {
		got = GetScope(c).BranchID.String()
		c.Status(http.StatusNoContent)
	}

	tests := []struct {
		name       string
		header     string
		policy     fakePolicy
		claims     *auth.Claims
		wantStatus int
	}{
		{"missing header", "", fakePolicy{allow: true}, claims, http.StatusUnauthorized},
		{"wrong scheme", "Basic good", fakePolicy{allow: true}, claims, http.StatusUnauthorized},
		{"bad token", "Bearer nope", fakePolicy{allow: true}, claims, http.StatusUnauthorized},
		{"denied", "Bearer good", fakePolicy{allow: false}, claims, http.StatusForbidden},
		{"policy error", "Bearer good", fakePolicy{err: errors.New("eval")}, claims, http.StatusInternalServerError},
		{"no branch", "Bearer good", fakePolicy{allow: true}, &auth.Claims{UserID: "u1"}, http.StatusUnauthorized},
		{"allowed", "Bearer good", fakePolicy{allow: true}, claims, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = ""
			r := newScopedRouter(tt.policy, tt.claims, ok)
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, branch.String(), got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	claims := &auth.Claims{UserID: "u1", BranchID: id.New().String(), Roles: []string{"viewer"}}

	r := gin.New()
	r.Use(ErrorHandler())
	g := r.Group("", Auth(fakeValidator{claims: claims}), Scope(fakePolicy{allow: true}))
	g.GET("/admin", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })
	g.GET("/view", RequireRole("admin", "viewer"), func(c *gin.Context) { c.Status(http.StatusOK) })

	for path, want := range map[string]int{"/admin": http.StatusForbidden, "/view": http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, path)
	}
}

type storedKey struct {
	status      int
	contentType string
	body        []byte
	hash        string
	failed      bool
}

type fakeIdempotencyStore struct {
	keys     map[string]*storedKey
	pending  map[string]string
	released []string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: map[string]*storedKey{}, pending: map[string]string{}}
}

func (s *fakeIdempotencyStore) AcquireKey(_ context.Context, branchID, key, _, _, requestHash string) (*postgres.IdempotencyReplay, error) {
	k := branchID + "/" + key
	if stored, ok := s.keys[k]; ok {
		if stored.hash != requestHash {
			return nil, apperror.NewIdempotencyMismatch(key)
		}
		return &postgres.IdempotencyReplay{StatusCode: stored.status, ContentType: stored.contentType, Body: stored.body}, nil
	}
	if _, ok := s.pending[k]; ok {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	s.pending[k] = requestHash
	return nil, nil
}

func (s *fakeIdempotencyStore) finish(branchID, key string, status int, contentType string, body []byte, failed bool) {
	k := branchID + "/" + key
	s.keys[k] = &storedKey{status: status, contentType: contentType, body: body, hash: s.pending[k], failed: failed}
	delete(s.pending, k)
}

func (s *fakeIdempotencyStore) CompleteKey(_ context.Context, branchID, key string, status int, contentType string, body []byte) error {
	s.finish(branchID, key, status, contentType, body, false)
	return nil
}

func (s *fakeIdempotencyStore) FailKey(_ context.Context, branchID, key string, status int, contentType string, body []byte) error {
	s.finish(branchID, key, status, contentType, body, true)
	return nil
}

func (s *fakeIdempotencyStore) ReleaseKey(_ context.Context, branchID, key string) error {
	delete(s.pending, branchID+"/"+key)
	s.released = append(s.released, key)
	return nil
}

func newIdempotentRouter(store IdempotencyStore, branch id.ID, handler gin.HandlerFunc) *gin.Engine {
	claims := &auth.Claims{UserID: "u1", BranchID: branch.String()}
	r := gin.New()
	r.Use(ErrorHandler())
	g := r.Group("", Auth(fakeValidator{claims: claims}), Scope(fakePolicy{allow: true}), Idempotency(store))
	g.POST("/invoices", handler)
	return r
}

func postInvoice(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	r := newIdempotentRouter(store, id.New(), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"id": "inv-1", "call": calls})
	})

	first := postInvoice(r, "k1", `{"number":"A"}`)
	second := postInvoice(r, "k1", `{"number":"A"}`)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(HeaderIdempotencyReplayed))
	assert.Empty(t, first.Header().Get(HeaderIdempotencyReplayed))
}

func TestIdempotency_DifferentBodyIsRejected(t *testing.T) {
	store := newFakeIdempotencyStore()
	r := newIdempotentRouter(store, id.New(), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	postInvoice(r, "k1", `{"number":"A"}`)
	w := postInvoice(r, "k1", `{"number":"B"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Idempotency key mismatch", decodeError(t, w).Message)
}

func TestIdempotency_ClientErrorIsStoredAsFailure(t *testing.T) {
	store := newFakeIdempotencyStore()
	branch := id.New()
	r := newIdempotentRouter(store, branch, func(c *gin.Context) {
		_ = c.Error(apperror.NewValidation("bad line"))
		c.Abort()
	})

	first := postInvoice(r, "k1", `{}`)
	second := postInvoice(r, "k1", `{}`)

	assert.Equal(t, http.StatusBadRequest, first.Code)
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.Equal(t, "true", second.Header().Get(HeaderIdempotencyReplayed))
	assert.True(t, store.keys[branch.String()+"/k1"].failed)
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	r := newIdempotentRouter(store, id.New(), func(c *gin.Context) {
		calls++
		_ = c.Error(errors.New("db down"))
		c.Abort()
	})

	postInvoice(r, "k1", `{}`)
	w := postInvoice(r, "k1", `{}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"k1", "k1"}, store.released)
}

func TestIdempotency_KeysArePerBranch(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	}

	postInvoice(newIdempotentRouter(store, id.New(), handler), "k1", `{}`)
	w := postInvoice(newIdempotentRouter(store, id.New(), handler), "k1", `{}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotency_WithoutKeyPassesThrough(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	r := newIdempotentRouter(store, id.New(), func(c *gin.Context) {
		calls++
		c.Status(http.StatusNoContent)
	})

	postInvoice(r, "", `{}`)
	postInvoice(r, "", `{}`)

	assert.Equal(t, 2, calls)
	assert.Empty(t, store.keys)
}

func TestRateLimit(t *testing.T) {
	l, err := NewLimiter("2-M")
	require.NoError(t, err)

	r := gin.New()
	r.Use(ErrorHandler(), RateLimit(l))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, apperror.CodeRateLimited, decodeError(t, w).Code)
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestNewLimiter_RejectsBadRate(t *testing.T) {
	_, err := NewLimiter("lots")
	assert.Error(t, err)
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), HeaderIdempotencyKey)
}
