package e2e

import (
	"fmt"
	"testing"
)

func TestTryon_Success(t *testing.T) {
	ta := setupApp(t)

	body := fmt.Sprintf(`{"personImage": %q, "clothesImage": %q}`, testPhoto(), testPhoto())
	resp, err := doRequest(ta.app, "POST", "/api/tryon", body, map[string]string{
		"X-User-Id": "e2e-user",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, 200)

	result := parseJSON(t, resp)
	if _, ok := result["tryonId"]; !ok {
		t.Error("response missing tryonId")
	}
	if result["status"] != "completed" {
		t.Errorf("expected status completed, got %v", result["status"])
	}

	personURL, _ := result["personImageUrl"].(string)
	resultURL, _ := result["resultImageUrl"].(string)
	if personURL == "" {
		t.Error("response missing personImageUrl")
	}
	// without a prediction upstream the person photo is the result
	if resultURL != personURL {
		t.Errorf("expected resultImageUrl == personImageUrl, got %q vs %q", resultURL, personURL)
	}
}

func TestTryon_MissingClothesImage(t *testing.T) {
	ta := setupApp(t)

	body := fmt.Sprintf(`{"personImage": %q}`, testPhoto())
	resp, err := doRequest(ta.app, "POST", "/api/tryon", body, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, 400)

	result := parseJSON(t, resp)
	if result["error"] != "Both person and clothes images are required" {
		t.Errorf("unexpected error message: %v", result["error"])
	}
}

func TestTryon_MissingBothImages(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, "POST", "/api/tryon", `{}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, 400)
}

func TestTryon_MethodNotAllowed(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, "DELETE", "/api/tryon", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, 405)
}

func TestTryon_PreflightRequest(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, "OPTIONS", "/api/tryon", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, 200)

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard allow-origin, got %q", got)
	}
	if body := readBody(t, resp); body != "" {
		t.Errorf("preflight response body must be empty, got %q", body)
	}
}

func TestTryonHistory_EmptyWithoutDatabase(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, "GET", "/api/tryon/history", "", map[string]string{
		"X-User-Id": "e2e-user",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, 200)

	result := parseJSON(t, resp)
	history, ok := result["history"].([]interface{})
	if !ok {
		t.Fatalf("response missing history array: %v", result)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d entries", len(history))
	}
}
