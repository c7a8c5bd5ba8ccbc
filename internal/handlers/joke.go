package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type jokeResponse struct {
	Error    bool   `json:"error"`
	Type     string `json:"type"`
	Joke     string `json:"joke"`
	Setup    string `json:"setup"`
	Delivery string `json:"delivery"`
	Message  string `json:"message"`
}

func (s *Set) Joke(ctx context.Context, cmd string) error {
	s.voice.Say("Okay, finding a joke.")
	s.log.Info("requesting joke")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.jokeURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Error("joke request failed", "err", err)
		s.voice.Say("Sorry, I couldn't connect to the joke service.")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Error("joke API error", "status", resp.StatusCode)
		s.voice.Say("Sorry, the joke service returned an error.")
		return fmt.Errorf("joke API status %d", resp.StatusCode)
	}

	var j jokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&j); err != nil {
		s.log.Error("joke decode failed", "err", err)
		s.voice.Say("Something went wrong getting a joke.")
		return err
	}

	switch {
	case j.Error:
		s.log.Error("joke API reported error", "message", j.Message)
		s.voice.Say("Sorry, I couldn't fetch a joke.")
	case j.Type == "single":
		s.voice.Say(j.Joke)
	case j.Type == "twopart":
		s.voice.Say(j.Setup)
		s.sleep(1500 * time.Millisecond) // comedic beat
		s.voice.Say(j.Delivery)
	default:
		s.voice.Say("I found a joke, but its format is weird.")
	}
	return nil
}
