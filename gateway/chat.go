package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"nutricoach"
)

type chatResponse struct {
	ResponseText json.RawMessage `json:"responseText"`
}

// Chat sends a prompt to the backend's LLM endpoint and returns the decoded JSON
// payload of the reply. The service returns the payload either as a native JSON
// object or as a JSON-encoded string in the same field; both arrive here as one
// typed result, never as a runtime type check at call sites.
func (c *Client) Chat(ctx context.Context, message string) (json.RawMessage, error) {
	slog.Info("GATEWAY: Chat request", "prompt_len", len(message))

	body, err := c.post(ctx, "/api/llm/chat", map[string]any{"message": message})
	if err != nil {
		return nil, err
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("%w: chat envelope: %v", nutricoach.ErrMalformedResponse, err)
	}
	return decodePayload(cr.ResponseText)
}

// decodePayload unwraps a string-or-object payload into raw JSON. A textual field
// is parsed a second time; failure is a malformed response, never silently dropped.
func decodePayload(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("%w: empty responseText", nutricoach.ErrMalformedResponse)
	}

	if strings.HasPrefix(trimmed, `"`) {
		var embedded string
		if err := json.Unmarshal(raw, &embedded); err != nil {
			return nil, fmt.Errorf("%w: responseText: %v", nutricoach.ErrMalformedResponse, err)
		}
		embedded = strings.TrimSpace(embedded)
		if !json.Valid([]byte(embedded)) {
			return nil, fmt.Errorf("%w: embedded JSON does not parse", nutricoach.ErrMalformedResponse)
		}
		return json.RawMessage(embedded), nil
	}

	return raw, nil
}
