package utils

import (
	"strings" // Prefix stripping

	"github.com/gin-gonic/gin" // Gin context
)

// ClientIP returns the caller address used for allow-lists and audit logs.
// Forwarding headers are honoured only from the engine's trusted proxies;
// IPv4-mapped IPv6 prefixes are dropped.
func ClientIP(c *gin.Context) string {
	return strings.TrimPrefix(c.ClientIP(), "::ffff:")
}
