package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const (
	geocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	forecastURL  = "https://api.open-meteo.com/v1/forecast"
)

// Weather reports current conditions for a city using the Open-Meteo API,
// which needs no API key.
type Weather struct {
	Client *http.Client
	// BaseGeocodingURL and BaseForecastURL override the API endpoints,
	// mainly for tests.
	BaseGeocodingURL string
	BaseForecastURL  string
}

func (w *Weather) Name() string { return "weather" }

func (w *Weather) Description() string {
	return "Get current weather information for a city using Open-Meteo API"
}

func (w *Weather) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"city": map[string]interface{}{
				"type":        "string",
				"description": "The city name to get weather for",
			},
		},
		"required":             []string{"city"},
		"additionalProperties": false,
	}
}

type geocodingResult struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResult struct {
	Current struct {
		Temperature         float64 `json:"temperature_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		WeatherCode         int     `json:"weather_code"`
		WindSpeed           float64 `json:"wind_speed_10m"`
		RelativeHumidity    float64 `json:"relative_humidity_2m"`
	} `json:"current"`
}

func (w *Weather) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal(input, &in); err != nil || in.City == "" {
		return "", fmt.Errorf("missing 'city' field. Example: {\"city\": \"London\"}")
	}

	geoBase := w.BaseGeocodingURL
	if geoBase == "" {
		geoBase = geocodingURL
	}
	geoURL := fmt.Sprintf("%s?name=%s&count=1&language=en&format=json", geoBase, url.QueryEscape(in.City))

	var geo geocodingResult
	if err := w.getJSON(ctx, geoURL, &geo); err != nil {
		return "", fmt.Errorf("failed to fetch geocoding data: %w", err)
	}
	if len(geo.Results) == 0 {
		return "", fmt.Errorf("city not found")
	}
	loc := geo.Results[0]

	fcBase := w.BaseForecastURL
	if fcBase == "" {
		fcBase = forecastURL
	}
	fcURL := fmt.Sprintf(
		"%s?latitude=%f&longitude=%f&current=temperature_2m,apparent_temperature,weather_code,wind_speed_10m,relative_humidity_2m&temperature_unit=celsius",
		fcBase, loc.Latitude, loc.Longitude,
	)

	var fc forecastResult
	if err := w.getJSON(ctx, fcURL, &fc); err != nil {
		return "", fmt.Errorf("failed to fetch weather data: %w", err)
	}

	return fmt.Sprintf(
		"Weather in %s, %s:\n"+
			"🌡️  Temperature: %.1f°C (feels like %.1f°C)\n"+
			"☁️  Conditions: %s\n"+
			"💨 Wind: %.1f km/h\n"+
			"💧 Humidity: %.0f%%",
		loc.Name, loc.Country,
		fc.Current.Temperature, fc.Current.ApparentTemperature,
		weatherDescription(fc.Current.WeatherCode),
		fc.Current.WindSpeed, fc.Current.RelativeHumidity,
	), nil
}

func (w *Weather) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func weatherDescription(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code >= 1 && code <= 3:
		return "Partly cloudy"
	case code == 45 || code == 48:
		return "Foggy"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Rain showers"
	case code == 85 || code == 86:
		return "Snow showers"
	case code == 95:
		return "Thunderstorm"
	case code == 96 || code == 99:
		return "Thunderstorm with hail"
	default:
		return "Unknown"
	}
}
