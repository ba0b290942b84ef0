package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustlessid/internal/auth/models"
	"trustlessid/internal/auth/service"
	"trustlessid/internal/auth/store/revocation"
	userstore "trustlessid/internal/auth/store/user"
	jwttoken "trustlessid/internal/jwt_token"
	"trustlessid/internal/platform/logger"
	authmw "trustlessid/pkg/platform/middleware/auth"
	"trustlessid/pkg/platform/middleware/metadata"
	"trustlessid/pkg/testutil"
)

func newRouter() http.Handler {
	jwt := jwttoken.NewJWTService("handler-test-key", "trustlessid", "trustlessid-web")
	trl := revocation.NewInMemoryTRL()
	validator := jwttoken.NewMiddlewareAdapter(jwt, trl)
	svc := service.New(userstore.New(), jwt,
		service.WithLogger(logger.Discard()),
		service.WithRevocation(validator, trl),
	)
	h := New(svc, logger.Discard())

	r := chi.NewRouter()
	r.Use(metadata.ClientMetadata)
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(validator, logger.Discard()))
		h.Register(r)
	})
	return r
}

func login(t *testing.T, router http.Handler, email string) LoginResponse {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": "demo",
	})
	rec := testutil.DoRequest(router, req)
	testutil.AssertStatusOK(t, rec)
	return testutil.DecodeData[LoginResponse](t, rec)
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestLoginMeLogout(t *testing.T) {
	router := newRouter()
	res := login(t, router, "demo@trustlessid.io")
	require.NotEmpty(t, res.Token)
	assert.Equal(t, "Demo", res.User.Name)

	testutil.When(t, "the token is used", func(t *testing.T) {
		rec := testutil.DoRequest(router, withBearer(testutil.NewRequest(t, http.MethodGet, "/auth/me"), res.Token))
		testutil.AssertStatusOK(t, rec)
		assert.Equal(t, res.User.ID, testutil.DecodeData[models.User](t, rec).ID)
	})

	testutil.When(t, "the user logs out", func(t *testing.T) {
		rec := testutil.DoRequest(router, withBearer(testutil.NewRequest(t, http.MethodPost, "/auth/logout"), res.Token))
		testutil.AssertStatusOK(t, rec)
		assert.True(t, testutil.DecodeData[LogoutResponse](t, rec).LoggedOut)
	})

	testutil.Then(t, "the token is rejected", func(t *testing.T) {
		rec := testutil.DoRequest(router, withBearer(testutil.NewRequest(t, http.MethodGet, "/auth/me"), res.Token))
		testutil.AssertFailure(t, rec, http.StatusUnauthorized, "Invalid or expired token")
	})
}

func TestLoginValidation(t *testing.T) {
	router := newRouter()

	t.Run("missing email", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{"password": "x"})
		testutil.AssertFailure(t, testutil.DoRequest(router, req), http.StatusBadRequest, "email is required")
	})

	t.Run("malformed email", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{"email": "nobody"})
		testutil.AssertFailure(t, testutil.DoRequest(router, req), http.StatusBadRequest, "email is invalid")
	})

	t.Run("broken json", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", json.RawMessage("{"))
		testutil.AssertFailure(t, testutil.DoRequest(router, req), http.StatusBadRequest, "invalid JSON body")
	})
}

func TestMeRequiresToken(t *testing.T) {
	rec := testutil.DoRequest(newRouter(), testutil.NewRequest(t, http.MethodGet, "/auth/me"))
	testutil.AssertFailure(t, rec, http.StatusUnauthorized, "")
}
