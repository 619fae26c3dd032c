// Package news is a minimal supplement to the core engine: it fetches
// and prints the last few items from the Arch Linux news RSS feed,
// surfaced before a sync when config.ShowNews is set. Deliberately thin —
// this is an ambient collaborator, not a component the resolver depends
// on.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"time"
)

const feedURL = "https://archlinux.org/feeds/news/"

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

// CheckNews fetches the feed and returns the titles of the most recent
// items, up to max.
func CheckNews(ctx context.Context, max int) ([]string, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news feed returned status %d", resp.StatusCode)
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, err
	}

	var titles []string
	for i, item := range feed.Channel.Items {
		if i >= max {
			break
		}
		titles = append(titles, item.Title)
	}
	return titles, nil
}
