package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type wikiSummary struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// Wikipedia answers "wikipedia <topic>" and "tell me about <topic>"
// via the REST page-summary endpoint.
func (s *Set) Wikipedia(ctx context.Context, cmd string) error {
	topic := wikiTopic(cmd)
	if topic == "" {
		s.voice.Say("What topic should I look up?")
		return nil
	}

	s.voice.Say(fmt.Sprintf("Searching Wikipedia for %s.", topic))
	s.log.Info("requesting wikipedia summary", "topic", topic)

	endpoint := s.wikiURL + "/" + url.PathEscape(topic) + "?redirect=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Error("wikipedia request failed", "err", err)
		s.voice.Say("Sorry, I couldn't connect to Wikipedia.")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		s.voice.Say(fmt.Sprintf("Sorry, I couldn't find a Wikipedia page for '%s'.", topic))
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		s.log.Error("wikipedia API error", "status", resp.StatusCode)
		s.voice.Say("Sorry, Wikipedia returned an error.")
		return fmt.Errorf("wikipedia status %d", resp.StatusCode)
	}

	var sum wikiSummary
	if err := json.NewDecoder(resp.Body).Decode(&sum); err != nil {
		s.log.Error("wikipedia decode failed", "err", err)
		s.voice.Say("Sorry, I couldn't read the Wikipedia response.")
		return err
	}

	if sum.Type == "disambiguation" {
		s.voice.Say(fmt.Sprintf("'%s' could mean several things. Please be more specific.", topic))
		return nil
	}
	if sum.Extract == "" {
		s.voice.Say(fmt.Sprintf("The Wikipedia page for '%s' has no summary.", topic))
		return nil
	}

	s.voice.Say(sum.Extract)
	return nil
}

func wikiTopic(cmd string) string {
	if idx := strings.Index(cmd, "tell me about "); idx >= 0 {
		return strings.TrimSpace(cmd[idx+len("tell me about "):])
	}
	if idx := strings.Index(cmd, "wikipedia"); idx >= 0 {
		topic := cmd[idx+len("wikipedia"):]
		topic = strings.ReplaceAll(topic, "search for", "")
		topic = strings.ReplaceAll(topic, "about", "")
		return strings.TrimSpace(topic)
	}
	return ""
}
