package subacquirer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

const maxResponseBody = 1 << 20

// postJSON sends a JSON body and decodes the response into a generic map.
// The returned error covers transport and serialization faults only; HTTP
// error statuses are reported through the status code so callers can read
// the provider's own error fields.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body map[string]any) (int, map[string]any, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	data := map[string]any{}
	if len(raw) > 0 {
		// Tolerate non-JSON error bodies; the status code still tells the story.
		_ = json.Unmarshal(raw, &data)
	}
	return resp.StatusCode, data, nil
}

func httpSuccess(status int) bool {
	return status >= 200 && status < 300
}

// providerError extracts a human-readable failure message from a provider
// error response, with a synthesized fallback.
func providerError(data map[string]any, fallback string) string {
	if msg, ok := firstString(data, "message", "error"); ok {
		return msg
	}
	return fallback
}
