package service

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// mockCDNURL is the URL base used for fabricated image references when
// object storage is not configured.
const mockCDNURL = "https://cdn.poehali.dev/mock"

// decodeImage decodes a base64 image payload, stripping an optional
// data-URL prefix ("data:image/jpeg;base64,....") before the comma.
func decodeImage(payload string) ([]byte, error) {
	if idx := strings.Index(payload, ","); idx != -1 {
		payload = payload[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	return data, nil
}

// uniqueToken builds a timestamped unique token for storage keys.
func uniqueToken() string {
	return fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
}
