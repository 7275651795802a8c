package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/astra-care/internal/config"
	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, role, aid string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, utils.Claims{UserID: "u-1", Role: role, AstronautID: aid}, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func newEcho() *echo.Echo {
	e := echo.New()
	g := e.Group("/api", JWTAuth(secret))
	g.GET("/vitals/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, UserID(c)+"|"+Role(c)+"|"+AstronautID(c))
	}, RequireSubjectParam("id"))
	g.GET("/roster", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		RequireRole(model.RoleSupervisor, model.RoleMedical))
	return e
}

func do(e *echo.Echo, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := newEcho()

	assert.Equal(t, http.StatusUnauthorized, do(e, "/api/vitals/AST-001", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "/api/vitals/AST-001", "Bearer garbage").Code)

	rec := do(e, "/api/vitals/AST-001", bearer(t, model.RoleAstronaut, "AST-001"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1|astronaut|AST-001", rec.Body.String())
}

func TestSubjectAccess(t *testing.T) {
	e := newEcho()
	assert.Equal(t, http.StatusForbidden, do(e, "/api/vitals/AST-002", bearer(t, model.RoleAstronaut, "AST-001")).Code)
	assert.Equal(t, http.StatusOK, do(e, "/api/vitals/AST-002", bearer(t, model.RoleSupervisor, "AST-900")).Code)
	assert.Equal(t, http.StatusOK, do(e, "/api/vitals/AST-002", bearer(t, model.RoleMedical, "")).Code)
}

func TestRequireRole(t *testing.T) {
	e := newEcho()
	assert.Equal(t, http.StatusForbidden, do(e, "/api/roster", bearer(t, model.RoleAstronaut, "AST-001")).Code)
	assert.Equal(t, http.StatusOK, do(e, "/api/roster", bearer(t, model.RoleSupervisor, "AST-001")).Code)
}

func TestLimiterAndCachePassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	calls := 0
	h := func(c echo.Context) error { calls++; return c.String(http.StatusOK, "ok") }
	e.GET("/x", h,
		NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil),
		NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil))

	for i := 0; i < 3; i++ {
		rec := do(e, "/x", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 3, calls)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/astronauts", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/astronauts")
	c.Set(CtxUserID, "u-9")

	cfg := config.RateLimitConfig{Prefix: "astra:rl", KeyStrategy: "user_route"}
	assert.Equal(t, "astra:rl:user:u-9:route:GET /api/astronauts", buildRateKey(cfg, c))
	cfg.KeyStrategy = "ip"
	assert.Equal(t, "astra:rl:ip:10.0.0.7", buildRateKey(cfg, c))
	assert.Equal(t, "astra:rl:public:ip:10.0.0.7:route:GET /api/astronauts", buildRateKey(cfg.Public(), c))
}

func TestParseBucketResult(t *testing.T) {
	allowed, remaining, retry, ok := parseBucketResult([]any{int64(1), int64(4), int64(0)})
	require.True(t, ok)
	assert.True(t, allowed)
	assert.Equal(t, int64(4), remaining)
	assert.Zero(t, retry)

	_, _, _, ok = parseBucketResult("nope")
	assert.False(t, ok)
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"astronauts":["AST-001"]}`))
	require.NoError(t, err)
	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.JSONEq(t, `{"astronauts":["AST-001"]}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
}
