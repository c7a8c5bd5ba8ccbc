package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

type weatherResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Message string `json:"message"`
}

// Weather answers "weather in <city>" / "weather for <city>" against
// OpenWeatherMap. Each failure class gets its own spoken message.
func (s *Set) Weather(ctx context.Context, cmd string) error {
	if !s.cfg.WeatherEnabled() {
		s.voice.Say("Weather service unavailable: API key missing.")
		return nil
	}

	city := weatherCity(cmd)
	if city == "" {
		s.voice.Say("Which city's weather?")
		return nil
	}

	s.voice.Say(fmt.Sprintf("Fetching weather for %s.", capitalize(city)))
	s.log.Info("requesting weather", "city", city)

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", s.cfg.Keys.OpenWeatherMap)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.weatherURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			s.log.Warn("weather request timed out")
			s.voice.Say("The weather service timed out.")
		} else {
			s.log.Error("weather request failed", "err", err)
			s.voice.Say("I couldn't connect to the weather service.")
		}
		return err
	}
	defer resp.Body.Close()

	var data weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		s.log.Error("weather decode failed", "err", err)
		s.voice.Say("The weather service returned something I couldn't read.")
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		desc := "unknown conditions"
		if len(data.Weather) > 0 {
			desc = data.Weather[0].Description
		}
		report := fmt.Sprintf("In %s: %s. Temperature %.1f degrees, feels like %.1f. Humidity %d percent.",
			data.Name, desc, data.Main.Temp, data.Main.FeelsLike, data.Main.Humidity)
		if data.Wind.Speed > 0 {
			report += fmt.Sprintf(" Wind %.1f meters per second.", data.Wind.Speed)
		}
		s.voice.Say(report)
		return nil
	case http.StatusNotFound:
		s.voice.Say(fmt.Sprintf("Sorry, I couldn't find weather data for %s.", capitalize(city)))
		return nil
	case http.StatusUnauthorized:
		s.log.Error("weather auth failed", "status", resp.StatusCode)
		s.voice.Say("The weather service rejected the API key.")
		return fmt.Errorf("weather auth failed: %d", resp.StatusCode)
	default:
		s.log.Error("weather API error", "status", resp.StatusCode, "message", data.Message)
		s.voice.Say("The weather service reported an error.")
		return fmt.Errorf("weather API status %d", resp.StatusCode)
	}
}

func weatherCity(cmd string) string {
	for _, trigger := range []string{"weather in ", "weather for "} {
		if idx := strings.Index(cmd, trigger); idx >= 0 {
			return strings.TrimRight(strings.TrimSpace(cmd[idx+len(trigger):]), ".?!")
		}
	}
	return ""
}
