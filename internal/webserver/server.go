// Package webserver hosts the embedded admin HTTP server. Handlers register
// themselves with ApiGET/ApiPOST before the server is built.
package webserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/talkincode/qrfactory/config"
)

const (
	ApiPrefix     = "/api"
	AppContextKey = "appCtx"
)

// Route is a deferred route registration
type Route struct {
	Method     string
	Path       string
	Handler    echo.HandlerFunc
	Middleware []echo.MiddlewareFunc
	Root       bool
}

var (
	routesMu sync.Mutex
	routes   []Route
)

func addRoute(r Route) {
	routesMu.Lock()
	defer routesMu.Unlock()
	routes = append(routes, r)
}

// Routes returns a copy of the registered routes
func Routes() []Route {
	routesMu.Lock()
	defer routesMu.Unlock()
	return append([]Route(nil), routes...)
}

func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(Route{Method: http.MethodGet, Path: path, Handler: h, Middleware: m})
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(Route{Method: http.MethodPost, Path: path, Handler: h, Middleware: m})
}

// GET registers a route outside the /api prefix
func GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(Route{Method: http.MethodGet, Path: path, Handler: h, Middleware: m, Root: true})
}

// structValidator adapts go-playground/validator to echo.Validator
type structValidator struct {
	validate *validator.Validate
}

func (v *structValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// AdminServer is the echo instance plus its listen address
type AdminServer struct {
	root *echo.Echo
	addr string
	ln   net.Listener
}

// NewAdminServer builds the echo instance and mounts every registered
// route. appCtx is stored in each request context under AppContextKey.
func NewAdminServer(cfg config.WebConfig, appCtx interface{}) *AdminServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &structValidator{validate: validator.New()}
	e.JSONSerializer = &JSONSerializer{}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			zap.L().Error("http handler panic", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))
	e.Use(RequestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderContentType, "X-Actor"},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, appCtx)
			return next(c)
		}
	})

	api := e.Group(ApiPrefix)
	for _, r := range Routes() {
		if r.Root {
			e.Add(r.Method, r.Path, r.Handler, r.Middleware...)
			continue
		}
		api.Add(r.Method, r.Path, r.Handler, r.Middleware...)
	}

	return &AdminServer{root: e, addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)}
}

// Echo returns the underlying echo instance
func (s *AdminServer) Echo() *echo.Echo {
	return s.root
}

// Listen binds the address. Port 0 picks a free port, see Addr.
func (s *AdminServer) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.addr = ln.Addr().String()
	s.root.Listener = ln
	return nil
}

// Addr returns the bound address once Listen succeeded
func (s *AdminServer) Addr() string {
	return s.addr
}

// Start serves until Shutdown. It calls Listen when needed.
func (s *AdminServer) Start() error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	zap.S().Infof("Admin server listening on http://%s", s.addr)
	err := s.root.Start("")
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *AdminServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.root.Shutdown(ctx)
}
