// Package assistant owns the session lifecycle: greet, listen,
// dispatch, repeat, then tear down exactly once. The same shutdown
// path serves the spoken exit commands, process signals and the
// control socket.
package assistant

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"aria/internal/speech"
)

// backoff after a failed listen, so a dead microphone does not spin
// the loop
const sentinelBackoff = 500 * time.Millisecond

type Listener interface {
	Listen(ctx context.Context) string
}

type Dispatcher interface {
	Dispatch(ctx context.Context, cmd string) bool
}

type Voice interface {
	Say(text string)
}

// Controller runs the main loop and coordinates shutdown. Its
// ShuttingDown flag is shared with the speaker and listener so both
// go quiet the moment an exit is requested.
type Controller struct {
	listener Listener
	dispatch Dispatcher
	voice    Voice
	log      *slog.Logger

	userName      string
	assistantName string

	shuttingDown atomic.Bool
	goodbyeOnce  sync.Once
	cleanupOnce  sync.Once

	mu        sync.Mutex
	sessions  map[int]func()
	sessionID int

	now   func() time.Time
	sleep func(time.Duration)
}

func New(listener Listener, dispatch Dispatcher, voice Voice, userName, assistantName string) *Controller {
	return &Controller{
		listener:      listener,
		dispatch:      dispatch,
		voice:         voice,
		log:           slog.Default().With("part", "assistant"),
		userName:      userName,
		assistantName: assistantName,
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

// Bind supplies collaborators after construction. The speaker and
// listener need the controller's lifecycle flag, so they cannot exist
// before the controller does; Bind closes that cycle.
func (c *Controller) Bind(l Listener, d Dispatcher, v Voice) {
	c.listener = l
	c.dispatch = d
	c.voice = v
}

// ShuttingDown exposes the lifecycle flag for collaborators that must
// check it (the speaker skips synthesis once it is set).
func (c *Controller) ShuttingDown() *atomic.Bool {
	return &c.shuttingDown
}

// TrackSession registers a live resource (a browser session, usually)
// and returns its release function. The release runs at most once no
// matter how many paths call it, and unregisters itself so the
// registry holds only sessions still live; Cleanup force-releases
// anything still tracked, which covers the signal path interrupting a
// handler mid-flight.
func (c *Controller) TrackSession(closer io.Closer) func() {
	c.mu.Lock()
	if c.sessions == nil {
		c.sessions = make(map[int]func())
	}
	id := c.sessionID
	c.sessionID++

	var once sync.Once
	release := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.sessions, id)
			c.mu.Unlock()

			if err := closer.Close(); err != nil {
				c.log.Warn("session close failed", "err", err)
			} else {
				c.log.Info("session released")
			}
		})
	}

	c.sessions[id] = release
	c.mu.Unlock()
	return release
}

// BeginShutdown flips the lifecycle to ShuttingDown and says goodbye,
// once. Safe to call from any goroutine and any number of times.
func (c *Controller) BeginShutdown() {
	if c.shuttingDown.Swap(true) {
		return
	}
	c.goodbyeOnce.Do(func() {
		c.log.Info("shutdown initiated")
		c.voice.Say(fmt.Sprintf("Goodbye %s! Shutting down.", c.userName))
	})
}

// Exit is the handler bound to the spoken exit commands.
func (c *Controller) Exit(ctx context.Context, cmd string) error {
	c.BeginShutdown()
	return nil
}

// Run greets, then loops listen → dispatch until shutdown. Cleanup is
// deferred so it fires even if a panic unwinds through the loop.
func (c *Controller) Run(ctx context.Context) {
	defer c.Cleanup()

	c.voice.Say(fmt.Sprintf("%s This is %s. How can I help?", c.timeGreeting(), c.assistantName))

	for !c.shuttingDown.Load() {
		cmd := c.listener.Listen(ctx)

		// shutdown may have been requested while we were listening
		if cmd == speech.Shutdown {
			break
		}

		c.dispatch.Dispatch(ctx, cmd)

		if speech.IsSentinel(cmd) {
			c.sleep(sentinelBackoff)
		}
	}
}

func (c *Controller) timeGreeting() string {
	switch hour := c.now().Hour(); {
	case hour < 12:
		return fmt.Sprintf("Good morning %s!", c.userName)
	case hour < 18:
		return fmt.Sprintf("Good afternoon %s!", c.userName)
	default:
		return fmt.Sprintf("Good evening %s!", c.userName)
	}
}

// Cleanup releases every tracked session. Idempotent; both the normal
// loop exit and the signal path call it.
func (c *Controller) Cleanup() {
	c.cleanupOnce.Do(func() {
		c.log.Info("performing final cleanup")

		c.mu.Lock()
		remaining := make([]func(), 0, len(c.sessions))
		for _, release := range c.sessions {
			remaining = append(remaining, release)
		}
		c.mu.Unlock()

		for _, release := range remaining {
			release()
		}
		c.log.Info("assistant shutdown complete")
	})
}
