package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) Aether/1.0"

// FetchResolver reads the title and icon link of a page over plain HTTP.
type FetchResolver struct {
	client *resty.Client
}

func NewFetchResolver(timeout time.Duration) *FetchResolver {
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	return &FetchResolver{client: client}
}

func (f *FetchResolver) Resolve(ctx context.Context, rawURL string) (PageInfo, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return PageInfo{}, fmt.Errorf("not an http url: %q", rawURL)
	}

	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return PageInfo{}, fmt.Errorf("request failed: %w", err)
	}
	statusCode := resp.StatusCode()
	if statusCode < 200 || statusCode >= 400 {
		return PageInfo{}, fmt.Errorf("HTTP %d (url: %s)", statusCode, rawURL)
	}

	finalURL := rawURL
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}

	info, err := parsePage(resp.String(), finalURL)
	if err != nil {
		return PageInfo{}, err
	}
	info.URL = finalURL
	return info, nil
}

// parsePage pulls the <title> and the first icon link out of html. Relative
// icon hrefs are resolved against base.
func parsePage(html, base string) (PageInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return PageInfo{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	info := PageInfo{
		Title: strings.Join(strings.Fields(doc.Find("title").First().Text()), " "),
	}
	if info.Title == "" {
		if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
			info.Title = strings.TrimSpace(og)
		}
	}

	doc.Find("link[rel]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		if !strings.Contains(rel, "icon") {
			return true
		}
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return true
		}
		if abs, err := resolveRef(base, href); err == nil {
			info.Favicon = abs
			return false
		}
		return true
	})
	return info, nil
}

func resolveRef(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
