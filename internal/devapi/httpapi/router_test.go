package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/common"
	"github.com/dmitrijs2005/rainwise/internal/devapi/config"
	"github.com/dmitrijs2005/rainwise/internal/devapi/repositories/catalog"
	"github.com/dmitrijs2005/rainwise/internal/devapi/repositories/refreshtokens"
	"github.com/dmitrijs2005/rainwise/internal/devapi/repositories/users"
	"github.com/dmitrijs2005/rainwise/internal/devapi/services"
	"github.com/dmitrijs2005/rainwise/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{SecretKey: string(secret), AccessTokenTTL: time.Hour, RefreshTokenTTL: time.Hour}

	store := catalog.NewStore()
	us := services.NewUserService(users.NewMemoryRepository(), refreshtokens.NewMemoryRepository(), store.Cities, cfg)
	cs := services.NewCatalogService(store)

	_, err := cs.Cities.Create(ctx, services.CityInput{Name: "Lima", Rainfall: 16})
	require.NoError(t, err)
	_, err = cs.Cities.Create(ctx, services.CityInput{Name: "Bogotá", Rainfall: 1013})
	require.NoError(t, err)
	_, err = us.EnsureAdmin(ctx, "Admin", "admin@example.com", "admin-pass")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	h := NewRouter(NewHandlers(us, cs, nil), Options{Metrics: NewMetrics(reg), Gatherer: reg, Secret: secret})
	return &testAPI{handler: h}
}

func (a *testAPI) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set(common.AuthorizationHeaderName, auth)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(t *testing.T, email, password string) models.AuthResult {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/auth/login", "", models.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/public/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(common.RequestIDHeaderName))

	rec = api.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgNotFound, message(t, rec))
}

func TestRouter_AuthFlow(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/auth/register", "", models.RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "secret1", CityID: 2, Language: "es",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reg models.RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	assert.Equal(t, "ana@example.com", reg.Email)
	assert.Equal(t, services.StatusPending, reg.Status)
	assert.False(t, reg.EmailConfirmed)
	require.NotEmpty(t, reg.EmailConfirmationToken)

	rec = api.do(t, http.MethodPost, "/auth/register", "", models.RegisterRequest{
		Name: "Ana", Email: "ANA@example.com", Password: "secret1", CityID: 2,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, msgEmailTaken, message(t, rec))

	rec = api.do(t, http.MethodPost, "/auth/login", "", models.LoginRequest{Email: "ana@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, msgNotConfirmed, message(t, rec))

	rec = api.do(t, http.MethodPost, "/auth/confirm-email", "", models.ConfirmEmailRequest{Token: "wrong"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgBadConfirmation, message(t, rec))

	rec = api.do(t, http.MethodPost, "/auth/confirm-email", "", models.ConfirmEmailRequest{Token: reg.EmailConfirmationToken})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/auth/login", "", models.LoginRequest{Email: "ana@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgBadCredentials, message(t, rec))

	session := api.login(t, "ana@example.com", "secret1")
	assert.Equal(t, int64(3600), session.ExpiresIn)
	assert.Equal(t, common.RoleCitizen, session.User.Role)
	require.NotNil(t, session.User.CityID)
	assert.Equal(t, int64(2), *session.User.CityID)

	rec = api.do(t, http.MethodPost, "/auth/refresh-token", "", models.RefreshRequest{RefreshToken: session.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed models.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.Equal(t, session.RefreshToken, refreshed.Data.RefreshToken)
	assert.NotEmpty(t, refreshed.Data.AccessToken)

	rec = api.do(t, http.MethodPost, "/auth/logout", "", models.RefreshRequest{RefreshToken: session.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/auth/refresh-token", "", models.RefreshRequest{RefreshToken: session.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_BadBodies(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name    string
		body    any
		wantMsg string
	}{
		{"not json", "{", msgMalformedBody},
		{"unknown field", `{"email":"a@b.c","password":"x","admin":true}`, msgMalformedBody},
		{"trailing data", `{"email":"a@b.c","password":"x"} {}`, msgMalformedBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/auth/login", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantMsg, message(t, rec))
		})
	}

	rec := api.do(t, http.MethodPost, "/auth/register", "", models.RegisterRequest{Name: "Ana", Email: "ana", Password: "secret1", CityID: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(message(t, rec), common.ErrorValidation.Error()))
}

func TestRouter_CitiesArePublic(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/cities?sortBy=name&limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.ListResponse[models.City]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Bogotá", list.Data[0].Name)
	assert.Equal(t, models.Pagination{Page: 1, Limit: 1, PageCount: 2, Total: 2, HasNextPage: true}, list.Meta.Pagination)

	rec = api.do(t, http.MethodPost, "/cities", "", services.CityInput{Name: "Quito", Rainfall: 1000})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.DataResponse[models.City]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "City created", created.Message)
	assert.Equal(t, int64(3), created.Data.ID)

	rec = api.do(t, http.MethodDelete, "/cities/3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "City deleted", message(t, rec))

	rec = api.do(t, http.MethodGet, "/cities/3", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_HugePageIsEmpty(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/cities?page=4611686018427387904&limit=4", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list models.ListResponse[models.City]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list.Data)
	assert.Equal(t, 2, list.Meta.Pagination.Total)
}

func TestRouter_ListQueryErrors(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{
		"/cities?sortDirection=sideways",
		"/cities?page=0",
		"/cities?limit=x",
		"/cities?sortBy=colour",
		"/cities/abc",
	} {
		rec := api.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestRouter_GuidesNeedToken(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login(t, "admin@example.com", "admin-pass")
	adminAuth := common.BearerPrefix + admin.AccessToken

	rec := api.do(t, http.MethodGet, "/guides", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/guides", bearer(t, common.RoleAdmin, -time.Second), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgTokenExpired, message(t, rec))

	rec = api.do(t, http.MethodPost, "/guides", bearer(t, common.RoleCitizen, time.Hour), services.GuideInput{})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/guides", adminAuth, services.GuideInput{
		Name:              "Rain barrels",
		Description:       "Collect water from your roof",
		Difficulty:        models.DifficultyBeginner,
		EstimatedDuration: 20,
		Language:          models.LanguageEN,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/modules", adminAuth, services.ModuleInput{
		Name: "Gutters", Description: "Clean gutters first", Order: 1, GuideID: 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/modules?guideId=1", bearer(t, common.RoleCitizen, time.Hour), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var modules models.ListResponse[models.Module]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &modules))
	assert.Len(t, modules.Data, 1)

	rec = api.do(t, http.MethodDelete, "/guides/1", adminAuth, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, msgInUse, message(t, rec))

	rec = api.do(t, http.MethodPut, "/guides/1", adminAuth, services.GuideInput{Name: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Users(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login(t, "admin@example.com", "admin-pass")
	adminAuth := common.BearerPrefix + admin.AccessToken

	rec := api.do(t, http.MethodGet, "/users", bearer(t, common.RoleCitizen, time.Hour), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/users?page=1&pageSize=5", adminAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.ListResponse[models.User]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, 5, list.Meta.Pagination.Limit)
	assert.NotContains(t, rec.Body.String(), "PasswordHash")

	rec = api.do(t, http.MethodDelete, "/users/1", adminAuth, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "admins cannot delete themselves")

	rec = api.do(t, http.MethodPut, "/users/1", adminAuth, map[string]string{"name": "Root"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.DataResponse[models.User]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Root", updated.Data.Name)

	rec = api.do(t, http.MethodGet, "/users/42", adminAuth, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodGet, "/cities/1", "", nil)

	rec := api.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rainwise_devapi_http_requests_total{method="GET",route="/cities/{id}",status="200"} 1`)
}
