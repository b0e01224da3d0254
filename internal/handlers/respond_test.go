package handlers

import (
	"io"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryLimit(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(strconv.Itoa(queryLimit(c, 20)))
	})

	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"?limit=0", 20},
		{"?limit=5", 5},
		{"?limit=100", 100},
		{"?limit=100000", maxPageSize},
		{"?limit=-3", 20},
		{"?limit=abc", 20},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(tt.want), string(body))
		})
	}
}
