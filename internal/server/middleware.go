package server

import (
	"strings"

	auditdomain "github.com/dentalclinic/payouts/internal/audit/domain"
	"github.com/dentalclinic/payouts/internal/auditcontext"
	"github.com/gin-gonic/gin"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorType = "X-Actor-Type"
)

// ActorContext stamps the caller from the upstream gateway headers. Requests without
// an actor are recorded as the system.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := strings.TrimSpace(c.GetHeader(HeaderActorID))
		if actorID == "" {
			c.Next()
			return
		}
		actorType := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderActorType)))
		if actorType == "" {
			actorType = string(auditdomain.ActorTypeUser)
		}

		ctx := auditcontext.WithActor(c.Request.Context(), actorType, actorID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func callerKey(c *gin.Context) string {
	if _, actorID := auditcontext.ActorFromContext(c.Request.Context()); actorID != "" {
		return actorID
	}
	return c.ClientIP()
}
