// Package predictor talks to the meal photo estimation service.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/time/rate"

	"github.com/saadjs/platelog/internal/model"
)

const defaultMaxBytes = 10 * 1024 * 1024

var (
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")
	ErrNotConfigured    = errors.New("predictor url is not configured")
)

// The model emits a normalized vector in this order.
const (
	outCalories = iota
	outMass
	outFat
	outCarbs
	outProtein
	outputLen
)

var (
	nutritionMean = [outputLen]float64{257.7, 214.42, 12.97, 19.28, 18.26}
	nutritionStd  = [outputLen]float64{211.42, 153.17, 13.72, 16.17, 20.14}
)

var DefaultAllowedMIME = []string{"image/jpeg", "image/png", "image/webp"}

type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	Limiter     *rate.Limiter
	AllowedMIME []string
	MaxBytes    int64
}

type response struct {
	Calories *float64  `json:"calories"`
	Protein  *float64  `json:"protein"`
	Fat      *float64  `json:"fat"`
	Carbs    *float64  `json:"carbs"`
	Outputs  []float64 `json:"outputs"`
}

// Predict uploads a meal photo and returns the estimated nutrition.
func (c *Client) Predict(ctx context.Context, image []byte) (model.MealEstimate, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		return model.MealEstimate{}, ErrNotConfigured
	}
	contentType, err := c.CheckImage(image)
	if err != nil {
		return model.MealEstimate{}, err
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return model.MealEstimate{}, fmt.Errorf("wait for predictor rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/predict", bytes.NewReader(image))
	if err != nil {
		return model.MealEstimate{}, fmt.Errorf("create predictor request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return model.MealEstimate{}, fmt.Errorf("execute predictor request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.MealEstimate{}, fmt.Errorf("read predictor response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.MealEstimate{}, fmt.Errorf("predictor request failed with status %d", resp.StatusCode)
	}
	return parseResponse(body)
}

// CheckImage sniffs the photo bytes and enforces the size limit and the
// allowed MIME list. It returns the detected MIME type.
func (c *Client) CheckImage(image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}
	limit := c.MaxBytes
	if limit <= 0 {
		limit = defaultMaxBytes
	}
	if int64(len(image)) > limit {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrImageTooLarge, len(image), limit)
	}
	allowed := c.AllowedMIME
	if len(allowed) == 0 {
		allowed = DefaultAllowedMIME
	}
	detected := mimetype.Detect(image)
	for _, m := range allowed {
		if detected.Is(m) {
			return detected.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, detected.String())
}

func parseResponse(body []byte) (model.MealEstimate, error) {
	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.MealEstimate{}, fmt.Errorf("decode predictor response: %w", err)
	}
	if len(parsed.Outputs) > 0 {
		return Denormalize(parsed.Outputs)
	}
	if parsed.Calories == nil {
		return model.MealEstimate{}, fmt.Errorf("predictor response has no calories")
	}
	return model.MealEstimate{
		Calories: *parsed.Calories,
		ProteinG: valueOrZero(parsed.Protein),
		FatG:     valueOrZero(parsed.Fat),
		CarbsG:   valueOrZero(parsed.Carbs),
	}, nil
}

// Denormalize converts the raw model vector into grams and kcal, rounded to
// one decimal. Mass is part of the vector but is not tracked.
func Denormalize(outputs []float64) (model.MealEstimate, error) {
	if len(outputs) != outputLen {
		return model.MealEstimate{}, fmt.Errorf("expected %d model outputs, got %d", outputLen, len(outputs))
	}
	value := func(i int) float64 {
		return round1(outputs[i]*nutritionStd[i] + nutritionMean[i])
	}
	return model.MealEstimate{
		Calories: value(outCalories),
		ProteinG: value(outProtein),
		FatG:     value(outFat),
		CarbsG:   value(outCarbs),
	}, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
