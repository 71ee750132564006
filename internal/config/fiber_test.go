package config

import (
	"YoloDetectionService/internal/middleware"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFiber_ErrorHandler(t *testing.T) {
	logger, hook := test.NewNullLogger()
	app := NewFiber(logger, false)

	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	app.Get("/broken", func(c *fiber.Ctx) error {
		c.Locals(middleware.RequestIDKey, "01J9ZK0000")
		return errors.New("disk on fire")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"short and stout"}`, string(body))
	assert.Empty(t, hook.AllEntries())

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/broken", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, string(body))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "01J9ZK0000", entry.Data["trace_id"])
	assert.Equal(t, "disk on fire", entry.Data["error"])
}
