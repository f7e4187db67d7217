package middleware

import (
    "fmt"
    "net/http"
    "strings"

    "github.com/getsentry/sentry-go"
    "github.com/labstack/echo/v4"
)

// Sentry reports panics and 5xx responses to Sentry.  A panic is turned
// into a 500 response.  With the SDK uninitialised the hub has no client
// and nothing is sent.
func Sentry() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) (err error) {
            req := c.Request()
            hub := sentry.CurrentHub().Clone()
            hub.ConfigureScope(func(scope *sentry.Scope) {
                scope.SetRequest(req)
                scope.SetContext("Request", map[string]interface{}{
                    "Method":  req.Method,
                    "URL":     req.URL.String(),
                    "Headers": getSafeHeaders(req.Header),
                })
                scope.SetTag("http.method", req.Method)
                scope.SetTag("http.route", c.Path())
            })

            defer func() {
                if r := recover(); r != nil {
                    hub.Recover(r)
                    err = echo.NewHTTPError(http.StatusInternalServerError, "internal error")
                }
            }()

            err = next(c)
            if err == nil {
                return nil
            }
            status := http.StatusInternalServerError
            if he, ok := err.(*echo.HTTPError); ok {
                status = he.Code
            }
            if status >= 500 {
                hub.CaptureException(fmt.Errorf("%s %s: %w", req.Method, c.Path(), err))
            }
            return err
        }
    }
}

func getSafeHeaders(h http.Header) map[string]interface{} {
    safe := make(map[string]interface{}, len(h))
    for k, v := range h {
        if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Cookie") {
            safe[k] = "[FILTERED]"
        } else {
            safe[k] = v
        }
    }
    return safe
}
