package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var blankRuns = regexp.MustCompile(`\n\s*\n`)

// chrome elements stripped before any text extraction
const nonContent = "script, style, header, footer, nav, aside, form, button, iframe, img, figure"

// containers tried, in order, as the page's main content
const mainContent = "article, main, [role=main], [id*=content], [id*=main], [class*=content], [class*=post], [class*=article]"

// ExtractReadable reduces a page to readable text: non-content
// elements are removed, a semantic main container is preferred, then
// paragraph text, then whole-body text. Consecutive blank lines are
// squeezed to one.
func ExtractReadable(pageHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return "", err
	}

	doc.Find(nonContent).Remove()

	var text string
	if main := doc.Find(mainContent).First(); main.Length() > 0 {
		text = lineText(main)
	}
	if text == "" {
		var lines []string
		doc.Find("p").Each(func(_ int, p *goquery.Selection) {
			if t := strings.TrimSpace(p.Text()); t != "" {
				lines = append(lines, t)
			}
		})
		text = strings.Join(lines, "\n")
	}
	if text == "" {
		text = lineText(doc.Find("body"))
	}

	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}

// lineText walks the selection's text nodes and joins them with
// newlines, the way a separator-aware text dump would.
func lineText(s *goquery.Selection) string {
	var lines []string
	for _, node := range s.Nodes {
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.TextNode {
				if t := strings.TrimSpace(n.Data); t != "" {
					lines = append(lines, t)
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(node)
	}
	return strings.Join(lines, "\n")
}

// SelectResultLink picks the first organic result from a search
// results page. Two passes: a precise selector keyed on tracked result
// links with headings, then a looser anchor scan. Empty string means
// no acceptable link was found.
func SelectResultLink(pageHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return ""
	}

	var link string
	doc.Find("div#search div.g").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		a := div.Find("a[href][data-ved]").First()
		href, _ := a.Attr("href")
		h3 := div.Find("h3").First()
		if organicLink(href) && strings.TrimSpace(h3.Text()) != "" {
			link = href
			return false
		}
		return true
	})
	if link != "" {
		return link
	}

	// looser fallback: any result anchor that carries a heading
	doc.Find("div#search a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if organicLink(href) && strings.TrimSpace(a.Find("h3").Text()) != "" {
			link = href
			return false
		}
		return true
	})
	return link
}

// organicLink rejects ads, search-internal and cache links.
func organicLink(href string) bool {
	if !strings.HasPrefix(href, "http") {
		return false
	}
	if strings.Contains(href, "google.com/") ||
		strings.Contains(href, "/search?q=") ||
		strings.Contains(href, "webcache.googleusercontent.com") {
		return false
	}
	return true
}
