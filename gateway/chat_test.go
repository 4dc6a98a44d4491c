package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"nutricoach"
)

func TestClient_Chat(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		status      int
		wantName    string
		wantErr     bool
		errSentinel error
	}{
		{
			name:     "payload as native object",
			status:   200,
			body:     `{"responseText":{"name":"Oatmeal","calories":300}}`,
			wantName: "Oatmeal",
		},
		{
			name:     "payload as JSON-encoded string",
			status:   200,
			body:     `{"responseText":"{\"name\":\"Oatmeal\",\"calories\":300}"}`,
			wantName: "Oatmeal",
		},
		{
			name:        "rate limited",
			status:      429,
			body:        `busy`,
			wantErr:     true,
			errSentinel: nutricoach.ErrRateLimited,
		},
		{
			name:        "embedded string is not JSON",
			status:      200,
			body:        `{"responseText":"Sorry, I cannot help with that."}`,
			wantErr:     true,
			errSentinel: nutricoach.ErrMalformedResponse,
		},
		{
			name:        "missing responseText",
			status:      200,
			body:        `{"unexpected":true}`,
			wantErr:     true,
			errSentinel: nutricoach.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := NewClient(ClientOpts{
				BaseURL:    "http://backend",
				HTTPClient: &mockHTTPClient{response: createMockResponse(tt.status, tt.body)},
			})

			payload, err := client.Chat(context.Background(), "Analyze meal: \"oatmeal\"")
			if (err != nil) != tt.wantErr {
				t.Errorf("Chat() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.errSentinel != nil && !errors.Is(err, tt.errSentinel) {
				t.Errorf("Chat() error = %v, want sentinel %v", err, tt.errSentinel)
			}
			if tt.wantErr {
				return
			}

			var item nutricoach.FoodItem
			if err := json.Unmarshal(payload, &item); err != nil {
				t.Fatalf("Chat() payload does not decode: %v", err)
			}
			if item.Name != tt.wantName {
				t.Errorf("Chat() decoded name = %v, want %v", item.Name, tt.wantName)
			}
		})
	}
}

func TestClient_Vision(t *testing.T) {
	t.Run("recognize returns foods", func(t *testing.T) {
		mock := &mockHTTPClient{response: createMockResponse(200,
			`{"foods":[{"name":"Rice","calories":200},{"name":"Chicken","calories":330}]}`)}
		client, _ := NewClient(ClientOpts{BaseURL: "http://backend", HTTPClient: mock})

		foods, err := client.RecognizeFood(context.Background(), []byte{0xff, 0xd8})
		if err != nil {
			t.Fatalf("RecognizeFood() error = %v", err)
		}
		if len(foods) != 2 {
			t.Fatalf("RecognizeFood() returned %d foods, want 2", len(foods))
		}
		if mock.lastReq.URL.Path != "/api/vision/recognize" {
			t.Errorf("RecognizeFood() path = %v", mock.lastReq.URL.Path)
		}
		if ct := mock.lastReq.Header.Get("Content-Type"); ct == "application/json" || ct == "" {
			t.Errorf("RecognizeFood() content type = %q, want multipart", ct)
		}
	})

	t.Run("recognize without foods list is malformed", func(t *testing.T) {
		client, _ := NewClient(ClientOpts{
			BaseURL:    "http://backend",
			HTTPClient: &mockHTTPClient{response: createMockResponse(200, `{"message":"ok"}`)},
		})

		_, err := client.RecognizeFood(context.Background(), []byte{0x01})
		if !errors.Is(err, nutricoach.ErrMalformedResponse) {
			t.Errorf("RecognizeFood() error = %v, want ErrMalformedResponse", err)
		}
	})

	t.Run("menu returns options", func(t *testing.T) {
		mock := &mockHTTPClient{response: createMockResponse(200,
			`{"options":[{"name":"Grilled Salmon","calories":450,"description":"lean protein"}]}`)}
		client, _ := NewClient(ClientOpts{BaseURL: "http://backend", HTTPClient: mock})

		options, err := client.ReadMenu(context.Background(), []byte{0x01})
		if err != nil {
			t.Fatalf("ReadMenu() error = %v", err)
		}
		if len(options) != 1 || options[0].Description != "lean protein" {
			t.Errorf("ReadMenu() options = %+v", options)
		}
		if mock.lastReq.URL.Path != "/api/vision/menu" {
			t.Errorf("ReadMenu() path = %v", mock.lastReq.URL.Path)
		}
	})
}
