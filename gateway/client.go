package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"nutricoach"
)

// Client talks plain HTTP/JSON to the nutrition backend. The backend may be cold
// and take tens of seconds to answer, so no timeout is enforced here; callers
// control lifetime through the request context.
type Client struct {
	baseURL    string
	httpClient nutricoach.HTTPClient
}

type ClientOpts struct {
	BaseURL    string
	HTTPClient nutricoach.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("invalid base URL")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
	}, nil
}

// flexFloat decodes a number that the backend may have stored as a numeric string,
// because the original profile form posted form-data strings. An unparsable value
// degrades to zero so callers fall back to default targets instead of failing.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			slog.Warn("GATEWAY: non-numeric goal value, defaulting to 0", "value", str)
			*f = 0
			return nil
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type wireGoals struct {
	Calories flexFloat `json:"calories"`
	Protein  flexFloat `json:"protein"`
	Carbs    flexFloat `json:"carbs"`
	Fats     flexFloat `json:"fats"`
}

type wireProfile struct {
	Goals wireGoals `json:"goals"`
}

// FetchProfile reads the stored goal targets. Missing or unset goals come back as
// zero; the aggregator substitutes fallback targets for those.
func (c *Client) FetchProfile(ctx context.Context) (*nutricoach.Profile, error) {
	body, err := c.get(ctx, "/api/profile")
	if err != nil {
		return nil, err
	}

	var wp wireProfile
	if err := json.Unmarshal(body, &wp); err != nil {
		return nil, fmt.Errorf("%w: profile: %v", nutricoach.ErrMalformedResponse, err)
	}

	return &nutricoach.Profile{
		Goals: nutricoach.Goals{
			Calories: float64(wp.Goals.Calories),
			Protein:  float64(wp.Goals.Protein),
			Carbs:    float64(wp.Goals.Carbs),
			Fats:     float64(wp.Goals.Fats),
		},
	}, nil
}

// FetchMeals reads the full meal history.
func (c *Client) FetchMeals(ctx context.Context) ([]nutricoach.MealRecord, error) {
	body, err := c.get(ctx, "/api/meals")
	if err != nil {
		return nil, err
	}

	var meals []nutricoach.MealRecord
	if err := json.Unmarshal(body, &meals); err != nil {
		return nil, fmt.Errorf("%w: meals: %v", nutricoach.ErrMalformedResponse, err)
	}
	return meals, nil
}

// LogMeal appends a confirmed meal. The backend owns the record from here on.
func (c *Client) LogMeal(ctx context.Context, meal nutricoach.CandidateMeal) error {
	payload := map[string]any{"meal": meal}
	_, err := c.post(ctx, "/api/meals/log", payload)
	return err
}

// UpdateProfile replaces the stored goal targets.
func (c *Client) UpdateProfile(ctx context.Context, goals nutricoach.Goals) error {
	payload := map[string]any{"profile": map[string]any{"goals": goals}}
	_, err := c.post(ctx, "/api/profile", payload)
	return err
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, path)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	reqBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path)
}

func (c *Client) do(req *http.Request, path string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%s: %w", path, nutricoach.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("backend %s: %s: %s", path, resp.Status, string(body))
	}
	return body, nil
}
