package adminapi

import (
	"github.com/labstack/echo/v4"

	"github.com/talkincode/qrfactory/internal/token"
	"github.com/talkincode/qrfactory/internal/webserver"
)

func registerAuthRoutes() {
	webserver.ApiGET("/auth/public", getAuthPublic)
	webserver.ApiPOST("/auth/setAdminCode", setAdminCode)
	webserver.ApiPOST("/auth/setInstallUrl", setInstallURL)
	webserver.ApiPOST("/auth/issue", issueToken)
	webserver.ApiPOST("/auth/consume", consumeToken)
}

type adminCodePayload struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

type installURLPayload struct {
	AdminCode string `json:"admin_code"`
	URL       string `json:"url"`
}

type issuePayload struct {
	AdminCode  string `json:"admin_code"`
	Type       string `json:"type"`
	TTLMinutes int    `json:"ttl_minutes"`
}

type consumePayload struct {
	Token    string `json:"token" validate:"required"`
	DeviceID string `json:"device_id"`
}

func getAuthPublic(c echo.Context) error {
	info, err := GetAppContext(c).Tokens().PublicInfo(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, info)
}

func setAdminCode(c echo.Context) error {
	var payload adminCodePayload
	if err := bindJSON(c, &payload); err != nil {
		return failErr(c, err)
	}
	err := GetAppContext(c).Tokens().RotateAdminCode(c.Request().Context(), actor(c), payload.Current, payload.Next)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"ok": true})
}

func setInstallURL(c echo.Context) error {
	var payload installURLPayload
	if err := bindJSON(c, &payload); err != nil {
		return failErr(c, err)
	}
	err := GetAppContext(c).Tokens().SetInstallURL(c.Request().Context(), actor(c), payload.AdminCode, payload.URL)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"ok": true})
}

func issueToken(c echo.Context) error {
	var payload issuePayload
	if err := bindJSON(c, &payload); err != nil {
		return failErr(c, err)
	}
	issued, err := GetAppContext(c).Tokens().Issue(c.Request().Context(), token.IssueRequest{
		Actor:      actor(c),
		Secret:     payload.AdminCode,
		Type:       payload.Type,
		TTLMinutes: payload.TTLMinutes,
		BaseURL:    requestBase(c),
	})
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{
		"ok":         true,
		"token":      issued.Token,
		"type":       issued.Type,
		"expires_at": issued.ExpiresAt,
		"link":       issued.Link,
	})
}

func consumeToken(c echo.Context) error {
	var payload consumePayload
	if err := bindJSON(c, &payload); err != nil {
		return failErr(c, err)
	}
	typ, err := GetAppContext(c).Tokens().Consume(c.Request().Context(), payload.Token, payload.DeviceID)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"ok": true, "action": typ})
}
