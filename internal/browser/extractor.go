package browser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Page is what a tab needs to know about the document it shows.
type Page struct {
	Title     string
	Excerpt   string
	SiteName  string
	URL       string
	FinalURL  string
	FetchTime time.Duration
}

// Label returns the best short name for the page.
func (p Page) Label() string {
	switch {
	case p.Title != "":
		return p.Title
	case p.SiteName != "":
		return p.SiteName
	case p.FinalURL != "":
		return p.FinalURL
	default:
		return p.URL
	}
}

// Extract pulls the title and excerpt out of a fetched document.
// Readability is tried first; the document head is the fallback.
func Extract(result *FetchResult) (*Page, error) {
	page := &Page{
		URL:       result.URL,
		FinalURL:  result.FinalURL,
		FetchTime: result.Duration,
	}
	if !IsHTML(result.ContentType) {
		return page, nil
	}

	parsedURL, err := url.Parse(result.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}

	if article, err := readability.FromReader(bytes.NewReader(result.Body), parsedURL); err == nil {
		page.Title = strings.TrimSpace(article.Title)
		page.Excerpt = strings.TrimSpace(article.Excerpt)
		page.SiteName = strings.TrimSpace(article.SiteName)
	}
	if page.Title != "" {
		return page, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	page.Title = headTitle(doc)
	return page, nil
}

func headTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("head title").First().Text()); t != "" {
		return collapseSpace(t)
	}
	for _, sel := range []string{`meta[property="og:title"]`, `meta[name="twitter:title"]`} {
		if t := strings.TrimSpace(doc.Find(sel).AttrOr("content", "")); t != "" {
			return collapseSpace(t)
		}
	}
	return collapseSpace(strings.TrimSpace(doc.Find("h1").First().Text()))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
