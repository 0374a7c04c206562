package details

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"miclinica_backend/internals/features/realtime"
)

// RealtimeRoutes exposes the clinic event feed over websocket. The auth
// middleware already ran, so the session locals are available to the hub.
func RealtimeRoutes(r fiber.Router, hub *realtime.Hub) {
	r.Use("/realtime", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	r.Get("/realtime", websocket.New(hub.Handler()))
}
