package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fisiocare/booking-api/internal/model"
)

// ActorKey is the gin context key under which the auth middleware stores the
// authenticated caller.
const ActorKey = "actor"

// Actor returns the authenticated caller from the request context. The second
// return is false on routes that skipped the auth middleware.
func Actor(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}
