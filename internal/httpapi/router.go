package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/voxlink/slackbridge/internal/bridge"
	"github.com/voxlink/slackbridge/internal/httpapi/handlers"
	"github.com/voxlink/slackbridge/internal/slack"
)

// NewRouter wires the inbound HTTP surface. The scheduled-task hook is a
// registered route and therefore matched before the NoRoute fallback that
// delegates everything else to the platform dispatcher; the hook can never
// be shadowed by platform traffic.
func NewRouter(b *bridge.Service, dispatcher *slack.Dispatcher) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	h := handlers.NewHandler(b)

	r.POST("/hooks/daily-news", h.DailyNews)

	r.NoRoute(gin.WrapH(dispatcher))
	return r
}
