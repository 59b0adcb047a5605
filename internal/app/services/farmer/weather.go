package farmer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/farm"
)

// Observation is a current-weather reading for a location.
type Observation struct {
	TempCelsius float64
	Humidity    float64
	Condition   string
}

// WeatherFetcher retrieves current weather for a location name.
type WeatherFetcher interface {
	Fetch(ctx context.Context, location string) (Observation, error)
}

// HTTPWeather calls a weather API of the shape
// GET {url}?q={location}&appid={key} with an OpenWeatherMap-style response.
type HTTPWeather struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPWeather builds a fetcher for the given endpoint.
func NewHTTPWeather(endpoint, apiKey string) *HTTPWeather {
	return &HTTPWeather{
		url:    endpoint,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *HTTPWeather) Fetch(ctx context.Context, location string) (Observation, error) {
	query := url.Values{}
	query.Set("q", location)
	query.Set("units", "metric")
	if w.apiKey != "" {
		query.Set("appid", w.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url+"?"+query.Encode(), nil)
	if err != nil {
		return Observation{}, err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return Observation{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Observation{}, fmt.Errorf("weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Observation{}, fmt.Errorf("weather provider returned status %d", resp.StatusCode)
	}

	parsed := gjson.ParseBytes(payload)
	obs := Observation{
		TempCelsius: parsed.Get("main.temp").Float(),
		Humidity:    parsed.Get("main.humidity").Float(),
		Condition:   parsed.Get("weather.0.main").String(),
	}
	if obs.Condition == "" {
		return Observation{}, fmt.Errorf("weather response missing condition")
	}
	return obs, nil
}

func encodeAdvisory(adv farm.Advisory) (string, error) {
	raw, err := json.Marshal(adv)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeAdvisory(raw string) (farm.Advisory, error) {
	var adv farm.Advisory
	if err := json.Unmarshal([]byte(raw), &adv); err != nil {
		return farm.Advisory{}, err
	}
	return adv, nil
}
