package cian

// CSS selectors for cian.ru search result pages
const (
	CardSelector     = `[data-name="CardComponent"]`
	LinkSelector     = `a[href]`
	TitleSelector    = `[data-mark="OfferTitle"]`
	SubtitleSelector = `[data-mark="OfferSubtitle"]`
	PriceSelector    = `[data-mark="MainPrice"]`
	GeoSelector      = `[data-name="GeoLabel"]`
)
