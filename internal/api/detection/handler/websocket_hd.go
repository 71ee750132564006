package detectionHandler

import (
	"YoloDetectionService/internal/api/detection"
	"YoloDetectionService/internal/middleware"
	contextPkg "YoloDetectionService/pkg/context"
	"YoloDetectionService/pkg/handlerUtil"
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// handleDetectWebSocket answers each {"image_path": ...} text frame with a
// detection result, one frame at a time.
func (h *DetectionHandler) handleDetectWebSocket(c *websocket.Conn) {
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)
	ctx := contextPkg.WithRequestID(context.Background(), requestID)

	h.log.WithField("request_id", requestID).Info("Detection WebSocket client connected")
	defer h.log.WithField("request_id", requestID).Info("Detection WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Errorf("Detection WebSocket error: %v", err)
			}
			break
		}

		if messageType != websocket.TextMessage {
			h.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		var reply interface{}
		err = h.detectionService.Ready()
		var req detection.DetectRequest
		if err == nil {
			req, err = h.parseDetectRequest(message)
		}
		if err == nil {
			reply, err = h.detectionService.Detect(ctx, req.ImagePath)
		}
		if err != nil {
			_, body := handlerUtil.ErrorBody(err)
			reply = body
		}

		if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(reply); err != nil {
			h.log.Errorf("Error writing JSON response: %v", err)
			break
		}
	}
}
