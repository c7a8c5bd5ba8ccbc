package handlers

import (
	"context"
	"fmt"
	"net/url"
	"runtime"
	"strings"
)

var knownSites = map[string]string{
	"google":  "https://www.google.com",
	"youtube": "https://www.youtube.com",
	"github":  "https://github.com",
}

// per-OS launch candidates for normalized application names; tried in
// order, first binary found on PATH wins
var appCandidates = map[string]map[string][]string{
	"notepad": {
		"windows": {"notepad"},
		"darwin":  {"TextEdit"},
		"linux":   {"gedit", "kate", "mousepad", "pluma", "xed", "nano"},
	},
	"calculator": {
		"windows": {"calc"},
		"darwin":  {"Calculator"},
		"linux":   {"gnome-calculator", "kcalc", "galculator", "bc"},
	},
}

// Open handles "open <target>": known websites go to the default
// browser, everything else is treated as a local application. A failed
// open is reported directly; it never falls through to the LLM, since
// the trigger itself matched and chat cannot launch anything locally.
func (s *Set) Open(ctx context.Context, cmd string) error {
	target := strings.TrimSpace(strings.Replace(cmd, "open", "", 1))
	if target == "" {
		s.voice.Say("What should I open?")
		return nil
	}
	s.log.Info("handling open", "target", target)

	if site, ok := knownSites[target]; ok {
		s.voice.Say(fmt.Sprintf("Opening %s in your browser.", capitalize(target)))
		if err := s.openURL(site); err != nil {
			s.log.Error("browser open failed", "url", site, "err", err)
			s.voice.Say(fmt.Sprintf("Sorry, I couldn't open %s.", capitalize(target)))
			return err
		}
		return nil
	}

	s.voice.Say(fmt.Sprintf("Trying to open %s.", target))
	if s.openApplication(normalizeApp(target)) {
		s.log.Info("application launched", "target", target)
		return nil
	}

	s.voice.Say(fmt.Sprintf("Sorry, I couldn't find or open '%s' on your system.", target))
	return nil
}

func (s *Set) openApplication(app string) bool {
	candidates := appCandidates[app][runtime.GOOS]
	for _, c := range candidates {
		if runtime.GOOS == "darwin" {
			if err := s.startCmd("open", "-a", c); err == nil {
				return true
			}
			continue
		}
		path, err := s.lookPath(c)
		if err != nil {
			continue
		}
		if err := s.startCmd(path); err == nil {
			return true
		}
		s.log.Warn("launch failed", "cmd", path, "err", err)
	}
	return false
}

func normalizeApp(target string) string {
	app := strings.ReplaceAll(target, " ", "")
	switch app {
	case "notepad", "texteditor", "editor":
		return "notepad"
	case "calc", "calculator":
		return "calculator"
	}
	return app
}

// WebSearch handles "search for <term>": a plain browser search, no
// scraping involved.
func (s *Set) WebSearch(ctx context.Context, cmd string) error {
	term := strings.TrimSpace(strings.Replace(cmd, "search for", "", 1))
	if term == "" {
		s.voice.Say("What should I search the web for?")
		return nil
	}

	s.voice.Say(fmt.Sprintf("Okay, opening a web search for '%s'.", term))
	s.log.Info("opening web search", "term", term)

	searchURL := "https://www.google.com/search?q=" + url.QueryEscape(term)
	if err := s.openURL(searchURL); err != nil {
		s.log.Error("browser open failed", "err", err)
		s.voice.Say("Sorry, I couldn't open the web browser.")
		return err
	}
	return nil
}
