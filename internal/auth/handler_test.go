package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bearerauth/bearerauth/internal/identity"
)

const signUpBody = `{
	"name": "Test User",
	"email": "test@example.com",
	"password": "a2asfGfdfdf4",
	"phones": [{"number": 123456789, "cityCode": 1, "countryCode": "44"}]
}`

func newTestApp(t *testing.T) (*fiber.App, *Service) {
	t.Helper()
	svc := newTestService(t, identity.NewMemoryRepository())
	h := NewHandler(svc)

	app := fiber.New()
	app.Post("/sign-up", h.SignUp)
	app.Post("/login", h.Login)
	app.Get("/me", func(c *fiber.Ctx) error {
		user, err := svc.CurrentUser(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return HTTPError(err)
		}
		c.Locals(UserLocalsKey, user)
		return c.Next()
	}, h.Me)
	return app, svc
}

func doRequest(t *testing.T, app *fiber.App, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestSignUpHandler(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doRequest(t, app, http.MethodPost, "/sign-up", signUpBody, "")
	require.Equal(t, http.StatusCreated, status)

	assert.NotEmpty(t, body["id"])
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["created"])
	assert.Equal(t, body["created"], body["lastLogin"])
	assert.Equal(t, true, body["isActive"])
	assert.NotContains(t, body, "email")
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "phones")

	status, _ = doRequest(t, app, http.MethodPost, "/sign-up", signUpBody, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSignUpHandlerMalformedBody(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doRequest(t, app, http.MethodPost, "/sign-up", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, http.MethodPost, "/sign-up", `{"email":"bad","password":"a2asfGfdfdf4"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginHandler(t *testing.T) {
	app, svc := newTestApp(t)

	_, created := doRequest(t, app, http.MethodPost, "/sign-up", signUpBody, "")
	token := created["token"].(string)

	status, _ := doRequest(t, app, http.MethodPost, "/login", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, app, http.MethodPost, "/login", "", "InvalidTokenExample")
	assert.Equal(t, http.StatusUnauthorized, status)

	orphan, err := svc.tokens.Generate("nobody@example.com")
	require.NoError(t, err)
	status, _ = doRequest(t, app, http.MethodPost, "/login", "", orphan)
	assert.Equal(t, http.StatusNotFound, status)

	status, body := doRequest(t, app, http.MethodPost, "/login", "", token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created["id"], body["id"])
	assert.Equal(t, "Test User", body["name"])
	assert.Equal(t, "test@example.com", body["email"])
	assert.NotEqual(t, token, body["token"])
	assert.Equal(t, created["created"], body["created"])
	assert.NotContains(t, body, "password")

	phones, ok := body["phones"].([]any)
	require.True(t, ok)
	require.Len(t, phones, 1)
	phone := phones[0].(map[string]any)
	assert.Equal(t, float64(123456789), phone["number"])
	assert.Equal(t, float64(1), phone["cityCode"])
	assert.Equal(t, "44", phone["countryCode"])
}

func TestMeHandler(t *testing.T) {
	app, _ := newTestApp(t)

	_, created := doRequest(t, app, http.MethodPost, "/sign-up", signUpBody, "")
	token := created["token"].(string)

	status, body := doRequest(t, app, http.MethodGet, "/me", "", token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created["id"], body["id"])
	assert.Equal(t, token, body["token"])

	status, _ = doRequest(t, app, http.MethodGet, "/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHTTPErrorHidesInternalCause(t *testing.T) {
	err := HTTPError(errors.Join(ErrInternal, errors.New("dial tcp 10.0.0.1:5432")))

	var fe *fiber.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusInternalServerError, fe.Code)
	assert.Equal(t, ErrInternal.Error(), fe.Message)

	err = HTTPError(ErrDuplicateEmail)
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusBadRequest, fe.Code)
	assert.Equal(t, "user already exists", fe.Message)
}
