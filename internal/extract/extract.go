// Package extract pulls candidate wallet addresses out of a rendered
// explorer listing page.
package extract

import (
	"regexp"

	"solscan-harvester/internal/domain"
)

// accountHrefPattern matches explorer account links in rendered rows.
// Format: href="/account/<base58>" with optional query string.
var accountHrefPattern = regexp.MustCompile(`/account/([1-9A-HJ-NP-Za-km-z]{32,44})`)

// txLinkTextPattern matches base58 tokens rendered as the text of
// transaction links. Some listing rows label a /tx/ anchor with a wallet
// address rather than the signature; signatures themselves decode to 64
// bytes and never pass the address predicate.
var txLinkTextPattern = regexp.MustCompile(`<a[^>]*href="/tx/[^"]*"[^>]*>([1-9A-HJ-NP-Za-km-z]{32,44})</a>`)

// Extractor validates and collects addresses from page HTML.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Addresses returns the valid, page-deduplicated addresses referenced by
// account links or rendered as transaction-link text in html. Candidates
// that fail the address format predicate are dropped silently; transaction
// rows routinely reference non-address fields and those are expected
// noise, not failures.
func (e *Extractor) Addresses(html string) []domain.Address {
	var candidates []string
	for _, m := range accountHrefPattern.FindAllStringSubmatch(html, -1) {
		candidates = append(candidates, m[1])
	}
	for _, m := range txLinkTextPattern.FindAllStringSubmatch(html, -1) {
		candidates = append(candidates, m[1])
	}
	if len(candidates) == 0 {
		return nil
	}

	seen := make(map[domain.Address]struct{}, len(candidates))
	var out []domain.Address
	for _, c := range candidates {
		addr, err := domain.ParseAddress(c)
		if err != nil {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
