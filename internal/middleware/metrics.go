package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/advocate-booking/internal/monitoring"
)

// Metrics records request count and latency per route pattern.  Using the
// pattern rather than the raw path keeps label cardinality bounded.
func Metrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            path := c.Path()
            if path == "" {
                path = "unmatched"
            }
            method := c.Request().Method
            monitoring.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()
            monitoring.RequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
            return nil
        }
    }
}
