package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"nutricoach"
)

type recognizeResponse struct {
	Foods []nutricoach.FoodItem `json:"foods"`
}

type menuResponse struct {
	Options []nutricoach.FoodItem `json:"options"`
}

// RecognizeFood uploads a meal photo and returns the foods detected on the plate.
func (c *Client) RecognizeFood(ctx context.Context, image []byte) ([]nutricoach.FoodItem, error) {
	body, err := c.upload(ctx, "/api/vision/recognize", image)
	if err != nil {
		return nil, err
	}

	var rr recognizeResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, fmt.Errorf("%w: recognize: %v", nutricoach.ErrMalformedResponse, err)
	}
	if rr.Foods == nil {
		return nil, fmt.Errorf("%w: response missing foods list", nutricoach.ErrMalformedResponse)
	}
	return rr.Foods, nil
}

// ReadMenu uploads a menu photo and returns the healthy picks found on it.
func (c *Client) ReadMenu(ctx context.Context, image []byte) ([]nutricoach.FoodItem, error) {
	body, err := c.upload(ctx, "/api/vision/menu", image)
	if err != nil {
		return nil, err
	}

	var mr menuResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return nil, fmt.Errorf("%w: menu: %v", nutricoach.ErrMalformedResponse, err)
	}
	if mr.Options == nil {
		return nil, fmt.Errorf("%w: response missing options list", nutricoach.ErrMalformedResponse)
	}
	return mr.Options, nil
}

// upload sends the image as a multipart form body under the "image" field, the
// only non-JSON request the backend accepts.
func (c *Client) upload(ctx context.Context, path string, image []byte) ([]byte, error) {
	slog.Info("GATEWAY: Image upload", "path", path, "image_bytes", len(image))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("image", "capture.jpg")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, path)
}
