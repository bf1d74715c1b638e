package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/admission-desk/backend/internal/models"
	"github.com/admission-desk/backend/internal/service"
)

// Header names the authentication gateway sets on every proxied request. The
// core trusts them; it is never exposed without the gateway in front.
const (
	EmployeeIDHeader     = "X-Employee-Id"
	EmployeeAdminHeader  = "X-Employee-Admin"
	EmployeeQueuesHeader = "X-Employee-Queues"
)

const identityKey = "identity"

// Identity materializes the gateway-asserted caller into the request context.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(EmployeeIDHeader)
		employeeID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || employeeID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Missing or invalid employee identity",
				},
			})
			return
		}

		ident := service.Identity{
			EmployeeID: employeeID,
			IsAdmin:    c.GetHeader(EmployeeAdminHeader) == "true",
		}
		for _, q := range strings.Split(c.GetHeader(EmployeeQueuesHeader), ",") {
			queue := models.QueueType(strings.TrimSpace(q))
			if queue.Valid() {
				ident.Queues = append(ident.Queues, queue)
			}
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

// CallerIdentity returns the identity stored by the Identity middleware.
func CallerIdentity(c *gin.Context) service.Identity {
	v, _ := c.Get(identityKey)
	ident, _ := v.(service.Identity)
	return ident
}

// AdminOnly rejects callers without the admin flag.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CallerIdentity(c).IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "PERMISSION_DENIED",
					"message": "Admin access required",
				},
			})
			return
		}
		c.Next()
	}
}
