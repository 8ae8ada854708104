package webserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/qrfactory/config"
)

type echoPayload struct {
	Name string `json:"name" validate:"required"`
}

func TestAdminServerRoutesAndValidation(t *testing.T) {
	ApiPOST("/test/echo", func(c echo.Context) error {
		var p echoPayload
		if err := c.Bind(&p); err != nil {
			return err
		}
		if err := c.Validate(&p); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "InvalidArgument"})
		}
		return c.JSON(http.StatusOK, echo.Map{"name": p.Name, "app": c.Get(AppContextKey)})
	})
	GET("/test/root", func(c echo.Context) error {
		return c.String(http.StatusOK, "root")
	})

	srv := NewAdminServer(config.WebConfig{Host: "127.0.0.1", Port: 0}, "ctx")
	e := srv.Echo()

	req := httptest.NewRequest(http.MethodPost, "/api/test/echo", strings.NewReader(`{"name":"qr"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"qr","app":"ctx"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/test/echo", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/test/root", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "root", rec.Body.String())
}

func TestListenPicksPort(t *testing.T) {
	srv := NewAdminServer(config.WebConfig{Host: "127.0.0.1", Port: 0}, nil)
	require.NoError(t, srv.Listen())
	assert.NotEqual(t, "127.0.0.1:0", srv.Addr())
	require.NoError(t, srv.ln.Close())
}
