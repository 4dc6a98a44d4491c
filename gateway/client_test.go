package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"nutricoach"
)

// mockHTTPClient implements the HTTPClient interface for testing
type mockHTTPClient struct {
	response *http.Response
	err      error
	lastReq  *http.Request
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.lastReq = req
	return m.response, m.err
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		opts    ClientOpts
		wantErr bool
	}{
		{
			name:    "valid client creation",
			opts:    ClientOpts{BaseURL: "http://localhost:8080", HTTPClient: &mockHTTPClient{}},
			wantErr: false,
		},
		{
			name:    "trailing slash trimmed",
			opts:    ClientOpts{BaseURL: "http://localhost:8080/", HTTPClient: &mockHTTPClient{}},
			wantErr: false,
		},
		{
			name:    "empty base URL",
			opts:    ClientOpts{BaseURL: "  "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewClient(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if strings.HasSuffix(got.baseURL, "/") {
				t.Errorf("NewClient() baseURL = %v, want no trailing slash", got.baseURL)
			}
		})
	}
}

func TestClient_FetchProfile(t *testing.T) {
	tests := []struct {
		name        string
		mockResp    *http.Response
		mockErr     error
		want        nutricoach.Goals
		wantErr     bool
		errSentinel error
	}{
		{
			name:     "numeric goals",
			mockResp: createMockResponse(200, `{"goals":{"calories":1800,"protein":120,"carbs":180,"fats":60}}`),
			want:     nutricoach.Goals{Calories: 1800, Protein: 120, Carbs: 180, Fats: 60},
		},
		{
			name: "string goals from the profile form",
			mockResp: createMockResponse(200,
				`{"goals":{"calories":"1800","protein":"120","carbs":"180","fats":"60"}}`),
			want: nutricoach.Goals{Calories: 1800, Protein: 120, Carbs: 180, Fats: 60},
		},
		{
			name:     "missing goals default to zero",
			mockResp: createMockResponse(200, `{"goals":{}}`),
			want:     nutricoach.Goals{},
		},
		{
			name:     "garbage goal value degrades to zero",
			mockResp: createMockResponse(200, `{"goals":{"calories":"a lot"}}`),
			want:     nutricoach.Goals{},
		},
		{
			name:    "transport error",
			mockErr: errors.New("connection refused"),
			wantErr: true,
		},
		{
			name:        "rate limited",
			mockResp:    createMockResponse(429, `slow down`),
			wantErr:     true,
			errSentinel: nutricoach.ErrRateLimited,
		},
		{
			name:        "non-JSON body",
			mockResp:    createMockResponse(200, `<html>waking up</html>`),
			wantErr:     true,
			errSentinel: nutricoach.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(ClientOpts{
				BaseURL:    "http://backend",
				HTTPClient: &mockHTTPClient{response: tt.mockResp, err: tt.mockErr},
			})
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}

			got, err := client.FetchProfile(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("FetchProfile() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.errSentinel != nil && !errors.Is(err, tt.errSentinel) {
				t.Errorf("FetchProfile() error = %v, want sentinel %v", err, tt.errSentinel)
			}
			if tt.wantErr {
				return
			}
			if got.Goals != tt.want {
				t.Errorf("FetchProfile() goals = %+v, want %+v", got.Goals, tt.want)
			}
		})
	}
}

func TestClient_FetchMeals(t *testing.T) {
	tests := []struct {
		name      string
		mockResp  *http.Response
		wantMeals int
		wantErr   bool
	}{
		{
			name: "two meals",
			mockResp: createMockResponse(200, `[
				{"timestamp":"2026-08-31T08:30:00Z","foods":[{"name":"Oatmeal","calories":300}]},
				{"timestamp":"2026-08-31T12:15:00Z","foods":[{"name":"Salad","calories":250}]}
			]`),
			wantMeals: 2,
		},
		{
			name:      "empty history",
			mockResp:  createMockResponse(200, `[]`),
			wantMeals: 0,
		},
		{
			name:     "object instead of array",
			mockResp: createMockResponse(200, `{"error":"cold start"}`),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := NewClient(ClientOpts{
				BaseURL:    "http://backend",
				HTTPClient: &mockHTTPClient{response: tt.mockResp},
			})

			meals, err := client.FetchMeals(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("FetchMeals() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if len(meals) != tt.wantMeals {
				t.Errorf("FetchMeals() returned %d meals, want %d", len(meals), tt.wantMeals)
			}
		})
	}
}

func TestClient_LogMeal(t *testing.T) {
	mock := &mockHTTPClient{response: createMockResponse(200, `{"ok":true}`)}
	client, _ := NewClient(ClientOpts{BaseURL: "http://backend", HTTPClient: mock})

	meal := nutricoach.CandidateMeal{Foods: []nutricoach.FoodItem{{Name: "Oatmeal", Calories: 300}}}
	if err := client.LogMeal(context.Background(), meal); err != nil {
		t.Fatalf("LogMeal() error = %v", err)
	}

	if mock.lastReq.URL.Path != "/api/meals/log" {
		t.Errorf("LogMeal() path = %v, want /api/meals/log", mock.lastReq.URL.Path)
	}
	if ct := mock.lastReq.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("LogMeal() content type = %v, want application/json", ct)
	}
}

func TestClient_UpdateProfile(t *testing.T) {
	mock := &mockHTTPClient{response: createMockResponse(500, `boom`)}
	client, _ := NewClient(ClientOpts{BaseURL: "http://backend", HTTPClient: mock})

	err := client.UpdateProfile(context.Background(), nutricoach.Goals{Calories: 2200})
	if err == nil {
		t.Fatal("UpdateProfile() expected error on 500")
	}
	if mock.lastReq.URL.Path != "/api/profile" {
		t.Errorf("UpdateProfile() path = %v, want /api/profile", mock.lastReq.URL.Path)
	}
}
