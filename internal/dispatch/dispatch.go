// Package dispatch routes recognized speech to command handlers
// through an ordered prefix-match table. Table order is the tie-break
// for overlapping triggers, so it is declared once as a literal slice
// and covered by tests.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"aria/internal/llm"
	"aria/internal/speech"
)

// OfflineRefusal is spoken when nothing matches and chat is disabled.
const OfflineRefusal = "Sorry, I don't understand that command, and my chat features are offline."

type Handler func(ctx context.Context, cmd string) error

// Route binds one trigger phrase to a handler. A command matches when
// it starts with the trigger; the first matching route wins.
type Route struct {
	Trigger string
	Handler Handler
}

type Voice interface {
	Say(text string)
}

// Chatter is the free-form fallback for commands no route claims.
type Chatter interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

type Dispatcher struct {
	routes []Route
	voice  Voice
	chat   Chatter // nil when the LLM is not configured
	log    *slog.Logger

	// serializes handlers across callers: the listen loop and the
	// control socket both dispatch, and handlers assume exclusive use
	// of the speech engine and at most one live browser session
	mu sync.Mutex
}

func New(routes []Route, voice Voice, chat Chatter) *Dispatcher {
	return &Dispatcher{
		routes: routes,
		voice:  voice,
		chat:   chat,
		log:    slog.Default().With("part", "dispatch"),
	}
}

// Dispatch runs the handler for cmd and reports whether anything was
// processed. Empty input and listen sentinels are dropped before any
// matching happens. A handler error is spoken and logged but still
// counts as processed, so it never falls through to the chat fallback.
// Calls are serialized; a dispatch from the control socket blocks
// until the loop's in-flight handler finishes.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd string) bool {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" || speech.IsSentinel(cmd) {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, r := range d.routes {
		if !strings.HasPrefix(cmd, r.Trigger) {
			continue
		}
		d.log.Info("dispatching", "trigger", r.Trigger, "cmd", cmd)
		if err := d.invoke(ctx, r.Handler, cmd); err != nil {
			d.log.Error("handler failed", "trigger", r.Trigger, "err", err)
			d.voice.Say("Sorry, I encountered an error trying to process that command.")
		}
		return true
	}

	if d.chat == nil {
		d.log.Warn("unrecognized command, chat offline", "cmd", cmd)
		d.voice.Say(OfflineRefusal)
		return true
	}

	d.log.Info("no route matched, forwarding to chat", "cmd", cmd)
	reply, err := d.chat.Chat(ctx, cmd)
	if err != nil {
		d.log.Error("chat fallback failed", "err", err)
		d.voice.Say(llm.SpokenError(err))
		return true
	}
	d.voice.Say(reply)
	return true
}

// invoke runs one handler, converting a panic into an error so a
// broken handler never takes down the listen loop.
func (d *Dispatcher) invoke(ctx context.Context, h Handler, cmd string) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("handler panic: %v", v)
		}
	}()
	return h(ctx, cmd)
}

// Routes builds the assistant's command table. Order matters where
// triggers overlap: "search about" (scrape and summarize) must sit
// before "search for" (plain browser search), and the greeting words
// come first so "hey, what time is it" still greets rather than
// reaching the fallback.
func Routes(h Handlers) []Route {
	return []Route{
		{"hello", h.Greeting},
		{"hi", h.Greeting},
		{"hey", h.Greeting},
		{"greetings", h.Greeting},
		{"how are you", h.Status},
		{"status", h.Status},
		{"what is my name", h.PersonalInfo},
		{"who am i", h.PersonalInfo},
		{"my hobby", h.PersonalInfo},
		{"what do i like", h.PersonalInfo},
		{"who made you", h.PersonalInfo},
		{"who created you", h.PersonalInfo},
		{"your developer", h.PersonalInfo},
		{"your name", h.PersonalInfo},
		{"system information", h.SystemInfo},
		{"system status", h.SystemInfo},
		{"what time is it", h.Time},
		{"the time", h.Time},
		{"what's the date", h.Date},
		{"today's date", h.Date},
		{"weather in", h.Weather},
		{"weather for", h.Weather},
		{"wikipedia", h.Wikipedia},
		{"tell me about", h.Wikipedia},
		{"tell me a joke", h.Joke},
		{"say a joke", h.Joke},
		{"search about", h.Summarize},
		{"search for", h.WebSearch},
		{"open", h.Open},
		{"take note", h.TakeNote},
		{"exit", h.Exit},
		{"quit", h.Exit},
		{"goodbye", h.Exit},
		{"bye", h.Exit},
		{"turn off", h.Exit},
		{"shut down", h.Exit},
	}
}

// Handlers is the full set of behaviors the route table binds to.
type Handlers struct {
	Greeting     Handler
	Status       Handler
	PersonalInfo Handler
	SystemInfo   Handler
	Time         Handler
	Date         Handler
	Weather      Handler
	Wikipedia    Handler
	Joke         Handler
	Summarize    Handler
	WebSearch    Handler
	Open         Handler
	TakeNote     Handler
	Exit         Handler
}
