package router // package router defines how HTTP routes are registered for the API

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/item-service/internal/handler"
)

// NewServer returns an Echo instance with panic recovery, one log line per
// request and errors rendered as {"detail": "..."}.
func NewServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = detailErrorHandler
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("http: %s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	return e
}

// RegisterRoutes maps the health check and the item endpoints.  The
// middleware in mw (rate limit, response cache) wraps /items only so the
// health check never depends on Redis.
func RegisterRoutes(e *echo.Echo, items *handler.ItemHandler, mw ...echo.MiddlewareFunc) {
	e.GET("/health", handler.Health)

	g := e.Group("/items", mw...)
	g.POST("", items.CreateItem)
	g.GET("", items.ListItems)
}

func detailErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	} else {
		log.Printf("http: unhandled error: %v", err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"detail": msg})
}
