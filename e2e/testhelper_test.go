package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/pr-poehali-dev/fashion-photo-search/internal/client"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/config"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/handler"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/middleware"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/service"
	"github.com/pr-poehali-dev/fashion-photo-search/pkg/response"
)

// testApp holds all components needed for testing
type testApp struct {
	app *fiber.App
}

// setupApp creates a Fiber app identical to main.go but with unconfigured
// external clients. This triggers mock/fallback responses in all services:
// mock storage URLs, pseudo ids instead of database rows, static search
// results and the person-image try-on fallback.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	validate := validator.New()

	// External clients — all unconfigured so services use fallbacks
	searchClient := client.NewGoogleSearchClient(&config.GoogleSearchConfig{}) // no API key → fallback results
	// storage = nil → mock CDN URLs
	// store = nil → pseudo ids, empty history
	// gateway = nil → person image stands in for the try-on result

	searchCfg := &config.SearchConfig{
		QueryStrategy: config.QueryStrategyClothingType,
		DefaultQuery:  "женская одежда мода купить",
	}

	searchService := service.NewSearchService(nil, searchClient, nil, nil, searchCfg)
	tryonService := service.NewTryonService(nil, nil, nil, "test/tryon:v1")

	searchHandler := handler.NewSearchHandler(searchService, validate)
	tryonHandler := handler.NewTryonHandler(tryonService, validate)

	// nil redis → rate limiting passes every request through
	rateLimiter := middleware.NewRateLimiter(nil)

	app := fiber.New(fiber.Config{
		ErrorHandler: testErrorHandler,
		BodyLimit:    50 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.CORS())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"storage":   false,
				"database":  false,
				"search":    false,
				"replicate": false,
			},
		})
	})

	api := app.Group("/api")

	api.Post("/search", rateLimiter.SearchLimit(10000), searchHandler.Search)
	api.Get("/search/history", searchHandler.History)
	api.All("/search", func(c *fiber.Ctx) error { return fiber.ErrMethodNotAllowed })

	api.Post("/tryon", rateLimiter.TryonLimit(10000), tryonHandler.TryOn)
	api.Get("/tryon/history", tryonHandler.History)
	api.All("/tryon", func(c *fiber.Ctx) error { return fiber.ErrMethodNotAllowed })

	return &testApp{app: app}
}

func testErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	return c.Status(code).JSON(response.ErrorResponse{Error: message})
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
