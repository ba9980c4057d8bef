package utils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func performRequest(t *testing.T, handler fiber.Handler) (int, APIResponse) {
	t.Helper()

	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload APIResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	return resp.StatusCode, payload
}

func TestSendSuccessDefaults(t *testing.T) {
	status, payload := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccess(c, "", fiber.Map{"id": 1})
	})

	require.Equal(t, fiber.StatusOK, status)
	require.True(t, payload.Success)
	require.Equal(t, "success", payload.Message)
	require.NotNil(t, payload.Data)
}

func TestSendSuccessWithStatus(t *testing.T) {
	status, payload := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccessWithStatus(c, fiber.StatusCreated, "created", fiber.Map{"id": 2})
	})

	require.Equal(t, fiber.StatusCreated, status)
	require.True(t, payload.Success)
	require.Equal(t, "created", payload.Message)
}

func TestSendError(t *testing.T) {
	status, payload := performRequest(t, func(c *fiber.Ctx) error {
		return SendError(c, fiber.StatusConflict, "submission was modified concurrently")
	})

	require.Equal(t, fiber.StatusConflict, status)
	require.False(t, payload.Success)
	require.Equal(t, "submission was modified concurrently", payload.Message)
	require.Nil(t, payload.Data)
}
