// Package weather fetches current conditions for the weather screen: the
// client's location from ipapi.co, then the observation from Open-Meteo.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Location is the geolocated position of the client.
type Location struct {
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Current is one weather observation.
type Current struct {
	Temperature float64 // celsius
	WindSpeed   float64 // km/h
	Code        int
	Time        string
}

// Report pairs a location with its current conditions.
type Report struct {
	Location Location
	Current  Current
}

// Client fetches weather reports. The zero value is not usable; use New.
type Client struct {
	httpClient *http.Client
	geoURL     string
	meteoURL   string
}

// New returns a Client against the public ipapi.co and Open-Meteo APIs.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		geoURL:     "https://ipapi.co/json/",
		meteoURL:   "https://api.open-meteo.com/v1/forecast",
	}
}

// Locate resolves the client's position from its IP address.
func (c *Client) Locate(ctx context.Context) (Location, error) {
	var loc Location
	if err := c.getJSON(ctx, c.geoURL, &loc); err != nil {
		return Location{}, fmt.Errorf("locating client: %w", err)
	}
	return loc, nil
}

type meteoResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
		Time        string  `json:"time"`
	} `json:"current_weather"`
}

// Fetch returns the current observation for a location.
func (c *Client) Fetch(ctx context.Context, loc Location) (Current, error) {
	u := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&current_weather=true",
		c.meteoURL, loc.Latitude, loc.Longitude)

	var raw meteoResponse
	if err := c.getJSON(ctx, u, &raw); err != nil {
		return Current{}, fmt.Errorf("fetching weather: %w", err)
	}
	return Current{
		Temperature: raw.CurrentWeather.Temperature,
		WindSpeed:   raw.CurrentWeather.WindSpeed,
		Code:        raw.CurrentWeather.WeatherCode,
		Time:        raw.CurrentWeather.Time,
	}, nil
}

// Report locates the client and fetches its current conditions.
func (c *Client) Report(ctx context.Context) (Report, error) {
	loc, err := c.Locate(ctx)
	if err != nil {
		return Report{}, err
	}
	cur, err := c.Fetch(ctx, loc)
	if err != nil {
		return Report{}, err
	}
	return Report{Location: loc, Current: cur}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
