package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoRequestID(c *fiber.Ctx) error {
	rid, _ := c.Locals(RequestIDLocalKey).(string)
	return c.SendString(rid)
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/provenance", echoRequestID)

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated when absent", incoming: "", keep: false},
		{name: "client id propagated", incoming: "trace-7f3a", keep: true},
		{name: "oversized id replaced", incoming: strings.Repeat("a", maxRequestIDLen+1), keep: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/provenance", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)

			header := resp.Header.Get(RequestIDHeader)
			body, _ := io.ReadAll(resp.Body)

			assert.Equal(t, header, string(body), "locals and response header must agree")
			if tt.keep {
				assert.Equal(t, tt.incoming, header)
			} else {
				assert.Len(t, header, 36)
				assert.NotEqual(t, tt.incoming, header)
			}
		})
	}
}

func TestLoggerWithWriter(t *testing.T) {
	var buf bytes.Buffer
	jakarta := time.FixedZone("WIB", 7*60*60)

	app := fiber.New()
	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, jakarta))
	app.Post("/provenance", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	app.Post("/digests", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadGateway, "upstream")
	})

	req := httptest.NewRequest("POST", "/provenance?dry=1", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	_, err := app.Test(req)
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("POST", "/digests", nil))
	require.NoError(t, err)

	var lines []map[string]any
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.Len(t, lines, 2)

	first := lines[0]
	assert.Equal(t, "http_request", first["msg"])
	assert.Equal(t, "rid-1", first["request_id"])
	assert.Equal(t, "POST", first["method"])
	assert.Equal(t, "/provenance", first["path"])
	assert.Equal(t, float64(fiber.StatusCreated), first["status"])
	assert.IsType(t, float64(0), first["latency"])
	assert.True(t, strings.HasSuffix(first["ts"].(string), "+07:00"))

	second := lines[1]
	assert.NotEmpty(t, second["request_id"])
	assert.Equal(t, float64(fiber.StatusBadGateway), second["status"])
}
