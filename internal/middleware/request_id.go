package middleware

import (
	contextPkg "YoloDetectionService/pkg/context"
	"YoloDetectionService/pkg/utils"
	"time"

	"github.com/gofiber/fiber/v2"
)

const RequestIDKey = contextPkg.LocalsRequestIDKey

// NewRequestIDMiddleware echoes X-Request-ID or assigns a ULID, and exposes it
// to handlers through Locals and the user context.
func NewRequestIDMiddleware() fiber.Handler {
	utilsInstance := utils.New()

	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)

		if requestID == "" {
			id, err := utilsInstance.NewULIDFromTimestamp(time.Now())
			if err != nil {
				return err
			}
			requestID = id
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)
		c.SetUserContext(contextPkg.WithRequestID(c.UserContext(), requestID))

		return c.Next()
	}
}
