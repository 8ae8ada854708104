package adminapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/qrfactory/internal/app"
	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/webserver"
)

// ActorHeader carries the trusted caller identity
const ActorHeader = "X-Actor"

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// GetAppContext returns the application bound by the webserver middleware
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB()
}

func actor(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get(ActorHeader))
}

// requestBase returns scheme://host of the inbound request
func requestBase(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}

// publicBase resolves the externally visible base URL for scan links
func publicBase(c echo.Context) string {
	return GetAppContext(c).Links().Base(c.Request().Context(), requestBase(c))
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, ErrorResponse{Error: code, Message: message, Details: details})
}

// StatusOf maps an error kind to its HTTP status
func StatusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindGone:
		return http.StatusGone
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// failErr translates a service error. Storage failures are logged and their
// cause is not exposed.
func failErr(c echo.Context, err error) error {
	kind := domain.KindOf(err)
	message := "storage failure"
	var de *domain.Error
	if errors.As(err, &de) {
		message = de.Message
	}
	if kind == domain.KindStorageFailure {
		zap.L().Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return fail(c, StatusOf(kind), string(kind), message, nil)
}

// bindJSON binds and validates the request body
func bindJSON(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return domain.InvalidArgument("unable to parse request body")
	}
	if err := c.Validate(v); err != nil {
		return domain.InvalidArgument("%s", err.Error())
	}
	return nil
}
