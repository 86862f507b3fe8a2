package middleware

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/mssola/useragent"
)

type metadataKey string

const (
	clientIPKey   metadataKey = "client_ip"
	userAgentKey  metadataKey = "user_agent"
	clientDescKey metadataKey = "client_desc"
)

// ClientMetadata captures the caller's IP address and User-Agent into the
// request context so that services can attach them to audit records without
// depending on the HTTP layer.
func ClientMetadata() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().UserAgent()

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, clientIPKey, c.RealIP())
			ctx = context.WithValue(ctx, userAgentKey, raw)
			ctx = context.WithValue(ctx, clientDescKey, describeUserAgent(raw))
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// describeUserAgent condenses a raw User-Agent header into "browser/version (os)".
func describeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	if os := ua.OS(); os != "" {
		return fmt.Sprintf("%s/%s (%s)", name, version, os)
	}
	return fmt.Sprintf("%s/%s", name, version)
}

// ClientIPFromContext retrieves the client IP captured by ClientMetadata.
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// UserAgentFromContext retrieves the raw User-Agent captured by ClientMetadata.
func UserAgentFromContext(ctx context.Context) string {
	ua, _ := ctx.Value(userAgentKey).(string)
	return ua
}

// ClientDescFromContext retrieves the condensed client description.
func ClientDescFromContext(ctx context.Context) string {
	d, _ := ctx.Value(clientDescKey).(string)
	return d
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service tests that don't run the HTTP middleware chain.
func WithClientMetadata(ctx context.Context, ip, ua string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, ip)
	ctx = context.WithValue(ctx, userAgentKey, ua)
	ctx = context.WithValue(ctx, clientDescKey, describeUserAgent(ua))
	return ctx
}
