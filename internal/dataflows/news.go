package dataflows

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"finsight/internal/models"
)

// rss mirrors the Google News RSS feed layout.
type rss struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	PubDate     string    `xml:"pubDate"`
	Source      rssSource `xml:"source"`
}

type rssSource struct {
	URL  string `xml:"url,attr"`
	Text string `xml:",chardata"`
}

// NewsClient fetches headlines from the Google News RSS feed. It serves as
// the fallback sentiment input when no Finnhub key is configured.
type NewsClient struct {
	client *resty.Client
	cache  *CacheManager
}

// NewNewsClient creates a news client with a 30-minute cache.
func NewNewsClient(cacheDir string, cacheEnabled bool) *NewsClient {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	return &NewsClient{
		client: client,
		cache:  NewCacheManager(filepath.Join(cacheDir, "google_news"), 30*time.Minute, cacheEnabled),
	}
}

// Search returns up to maxResults headlines matching the query.
func (nc *NewsClient) Search(query string, maxResults int) ([]models.NewsArticle, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	cacheKey := fmt.Sprintf("%s_%d", query, maxResults)
	var cached []models.NewsArticle
	if nc.cache.Get("google_news", "search", cacheKey, &cached) {
		return cached, nil
	}

	v := url.Values{}
	v.Set("q", query)
	v.Set("hl", "en")
	v.Set("gl", "US")
	v.Set("ceid", "US:en")
	feedURL := "https://news.google.com/rss/search?" + v.Encode()

	var feed rss
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := nc.client.R().Get(feedURL)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("google news request failed: %s", resp.Status())
		}
		return xml.Unmarshal(resp.Body(), &feed)
	})
	if err != nil {
		return nil, err
	}

	articles := make([]models.NewsArticle, 0, maxResults)
	for _, item := range feed.Channel.Items {
		if len(articles) >= maxResults {
			break
		}
		title := stripHTML(item.Title)
		if title == "" {
			continue
		}
		articles = append(articles, models.NewsArticle{
			Title:       title,
			Source:      sourceName(item.Source),
			URL:         item.Link,
			PublishedAt: parsePubDate(item.PubDate),
		})
	}

	nc.cache.Set("google_news", "search", cacheKey, articles)
	return articles, nil
}

func parsePubDate(s string) time.Time {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, "Mon, 02 Jan 2006 15:04:05 MST"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func sourceName(src rssSource) string {
	if src.Text != "" {
		return src.Text
	}
	if u, err := url.Parse(src.URL); err == nil {
		return u.Host
	}
	return ""
}

// stripHTML reduces an RSS fragment to its plain text.
func stripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}
