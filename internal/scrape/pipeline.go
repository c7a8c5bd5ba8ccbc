package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"aria/internal/llm"
)

// minReadable is the smallest extraction considered worth summarizing.
const minReadable = 100

// Chat is the summarization capability the pipeline needs.
type Chat interface {
	ChatWithContext(ctx context.Context, prompt, contextText string, maxChars int) (string, error)
}

type Voice interface {
	Say(text string)
}

// Pipeline answers "search about X" requests: search, pick a result,
// scrape it, summarize through the LLM, speak the summary. The browser
// session is a scoped resource: released exactly once on every exit
// path, and registered with Track so a termination signal can force
// the release while the pipeline is mid-flight.
type Pipeline struct {
	Launch   func(ctx context.Context) (Browser, error)
	Track    func(c io.Closer) func() // returns idempotent release; may be nil
	Chat     Chat                     // nil = summarization unavailable
	Voice    Voice
	MaxChars int

	log *slog.Logger
}

func (p *Pipeline) logger() *slog.Logger {
	if p.log == nil {
		p.log = slog.Default().With("part", "scrape")
	}
	return p.log
}

// Run executes one search-scrape-summarize request. External failures
// surface as spoken messages and a logged error, never as a panic, and
// never leave the browser session open.
func (p *Pipeline) Run(ctx context.Context, keyword string) error {
	log := p.logger()

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		p.Voice.Say("What keyword should I search about and summarize?")
		return nil
	}

	if p.Chat == nil {
		p.Voice.Say("Sorry, I can't summarize results while my chat features are offline.")
		return nil
	}

	p.Voice.Say(fmt.Sprintf(
		"Okay, searching online for '%s' to summarize the first result. This might take a minute.", keyword))
	log.Info("pipeline start", "keyword", keyword)

	b, err := p.Launch(ctx)
	if err != nil {
		log.Error("browser launch failed", "err", err)
		p.Voice.Say("Sorry, I couldn't start the web browser tool.")
		return err
	}
	release := p.track(b)
	defer release()

	link, err := b.Search(ctx, keyword)
	if err != nil {
		if err == ErrNoResult {
			log.Warn("no organic result", "keyword", keyword)
			p.Voice.Say(fmt.Sprintf("Sorry, I couldn't find a result for '%s'.", keyword))
		} else {
			log.Error("search failed", "keyword", keyword, "err", err)
			p.Voice.Say("Sorry, there was an error processing the search results.")
		}
		return err
	}

	text, err := b.FetchReadableText(ctx, link)
	if err != nil {
		log.Error("fetch failed", "link", link, "err", err)
		p.Voice.Say(fmt.Sprintf("Sorry, a browser error occurred while reading the result for '%s'.", keyword))
		return err
	}

	if len(text) < minReadable {
		log.Warn("insufficient content", "link", link, "chars", len(text))
		p.Voice.Say("Sorry, I couldn't extract enough readable content from that web page to summarize.")
		return nil
	}

	prompt := fmt.Sprintf(
		"Please provide a concise summary (around 2-4 sentences) of the main points from the following text extracted from a webpage about '%s':", keyword)

	summary, err := p.Chat.ChatWithContext(ctx, prompt, text, p.MaxChars)
	if err != nil {
		log.Error("summarization failed", "err", err)
		p.Voice.Say("I got the content, but failed to summarize it. " + llm.SpokenError(err))
		return err
	}
	if errorish(summary) {
		log.Warn("summary looks like an error message", "summary", summary)
		p.Voice.Say("I got the content, but failed to summarize it: " + summary)
		return nil
	}

	p.Voice.Say(fmt.Sprintf("Here's a summary from the first search result I found for '%s': %s", keyword, summary))
	return nil
}

// track wraps the session in an idempotent release and registers it
// with the controller when a Track hook is present.
func (p *Pipeline) track(b Browser) func() {
	if p.Track != nil {
		return p.Track(b)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := b.Close(); err != nil {
				p.logger().Warn("browser close failed", "err", err)
			}
		})
	}
}

func errorish(summary string) bool {
	s := strings.ToLower(summary)
	return strings.Contains(s, "error") ||
		strings.Contains(s, "failed") ||
		strings.Contains(s, "unavailable")
}
