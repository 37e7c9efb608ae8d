package cian

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"flat-scraper/models"
	"flat-scraper/utils"

	"github.com/PuerkitoBio/goquery"
)

var errMissingField = errors.New("missing field")

// Extract walks every listing card on a rendered search page. Cards without a
// detail link, title or price are skipped with a warning; address is optional.
// Relative links are resolved against pageURL.
func Extract(html string, pageURL string) ([]models.ListingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("could not parse page: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("bad page url: %w", err)
	}

	cards := doc.Find(CardSelector)
	records := make([]models.ListingRecord, 0, cards.Length())

	cards.Each(func(i int, card *goquery.Selection) {
		rec, err := extractCard(card, base)
		if err != nil {
			utils.Warn("Card %d skipped: %v", i+1, err)
			return
		}
		records = append(records, rec)
	})

	return records, nil
}

func extractCard(card *goquery.Selection, base *url.URL) (models.ListingRecord, error) {
	href, ok := card.Find(LinkSelector).First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return models.ListingRecord{}, fmt.Errorf("%w: detail link", errMissingField)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return models.ListingRecord{}, fmt.Errorf("bad detail link %q: %w", href, err)
	}
	link := base.ResolveReference(ref).String()

	title := strings.TrimSpace(
		joinTexts(card.Find(TitleSelector), " ") + " " + joinTexts(card.Find(SubtitleSelector), " "),
	)
	if title == "" {
		return models.ListingRecord{}, fmt.Errorf("%w: title (%s)", errMissingField, link)
	}

	price := normalizeSpace(card.Find(PriceSelector).First().Text())
	if price == "" {
		return models.ListingRecord{}, fmt.Errorf("%w: price (%s)", errMissingField, link)
	}

	return models.ListingRecord{
		Title:   title,
		Price:   price,
		Address: joinTexts(card.Find(GeoSelector), ", "),
		Link:    link,
	}, nil
}

func joinTexts(sel *goquery.Selection, sep string) string {
	parts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := normalizeSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, sep)
}

// normalizeSpace collapses whitespace runs, including the non-breaking spaces
// used in prices like "30 000 ₽/мес.", into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
