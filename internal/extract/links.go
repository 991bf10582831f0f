package extract

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagesift/pagesift/internal/model"
)

// collectLinks gathers outbound anchors during HTML cleaning, merging
// repeated targets and recording anchor texts. Best-effort audit data; never
// validated over the network.
func collectLinks(gq *goquery.Document, base *url.URL, max int) []model.LinkInfo {
	if max <= 0 {
		return nil
	}

	type entry struct {
		info    model.LinkInfo
		anchors map[string]bool
	}
	seen := make(map[string]*entry)
	order := 0

	gq.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return
		}

		target, err := url.Parse(href)
		if err != nil {
			return
		}
		if base != nil {
			target = base.ResolveReference(target)
		}
		if target.Scheme != "http" && target.Scheme != "https" {
			return
		}

		key := target.String()
		e, exists := seen[key]
		if !exists {
			external := base == nil || !strings.EqualFold(target.Host, base.Host)
			e = &entry{
				info: model.LinkInfo{
					URL:                  key,
					Domain:               strings.TrimPrefix(strings.ToLower(target.Host), "www."),
					IsExternal:           external,
					FirstOccurrenceIndex: order,
				},
				anchors: make(map[string]bool),
			}
			seen[key] = e
			order++
		}

		e.info.OccurrenceCount++
		if anchor := strings.TrimSpace(s.Text()); anchor != "" && len(anchor) <= 200 {
			e.anchors[anchor] = true
		}
	})

	links := make([]model.LinkInfo, 0, len(seen))
	for _, e := range seen {
		anchors := make([]string, 0, len(e.anchors))
		for a := range e.anchors {
			anchors = append(anchors, a)
		}
		sort.Strings(anchors)
		e.info.AnchorTexts = anchors
		links = append(links, e.info)
	}

	sort.Slice(links, func(i, j int) bool {
		return links[i].FirstOccurrenceIndex < links[j].FirstOccurrenceIndex
	})

	if len(links) > max {
		links = links[:max]
	}
	return links
}
