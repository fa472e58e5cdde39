// Package product fetches product pages and extracts the embedded
// gocommerce-product JSON descriptor.
package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/html"

	"github.com/lilwayne470/gocommerce-js/internal/domain"
)

// descriptorClass marks the element whose text content is the product JSON.
const descriptorClass = "gocommerce-product"

var (
	ErrNoDescriptor   = errors.New("no gocommerce-product descriptor in document")
	ErrInvalidProduct = errors.New("invalid product descriptor")
)

// descriptor is the embedded JSON shape on a product page.
type descriptor struct {
	SKU         string         `json:"sku"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Prices      []domain.Price `json:"prices"`
	Type        string         `json:"type"`
	VAT         string         `json:"vat"`
}

// HTTPSource fetches product pages from the site over HTTP.
type HTTPSource struct {
	siteURL string
	client  *http.Client
}

// NewHTTPSource builds a source resolving paths against siteURL.
func NewHTTPSource(siteURL string) *HTTPSource {
	return &HTTPSource{
		siteURL: strings.TrimRight(siteURL, "/"),
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
	}
}

// Get fetches the page at path and returns the line item it describes,
// with zero quantity; the caller sets quantity and meta.
func (s *HTTPSource) Get(ctx context.Context, path string) (*domain.LineItem, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.siteURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build product request failed: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("product fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("product fetch for %q returned status %d", path, resp.StatusCode)
	}

	item, err := Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	item.Path = path
	return item, nil
}

// Parse extracts and validates the product descriptor embedded in an HTML
// document.
func Parse(r io.Reader) (*domain.LineItem, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document failed: %w", err)
	}

	raw := findDescriptor(doc)
	if raw == "" {
		return nil, ErrNoDescriptor
	}

	var d descriptor
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	if d.SKU == "" {
		return nil, fmt.Errorf("%w: missing sku", ErrInvalidProduct)
	}
	if d.Title == "" {
		return nil, fmt.Errorf("%w: missing title", ErrInvalidProduct)
	}
	if len(d.Prices) == 0 {
		return nil, fmt.Errorf("%w: no prices", ErrInvalidProduct)
	}
	for _, p := range d.Prices {
		if _, err := decimal.NewFromString(p.Amount); err != nil {
			return nil, fmt.Errorf("%w: price amount %q is not a decimal", ErrInvalidProduct, p.Amount)
		}
	}

	return &domain.LineItem{
		SKU:         d.SKU,
		Title:       d.Title,
		Description: d.Description,
		Prices:      d.Prices,
		Type:        d.Type,
		VAT:         d.VAT,
	}, nil
}

// findDescriptor walks the node tree for the first element carrying the
// gocommerce-product class and returns its concatenated text content.
func findDescriptor(n *html.Node) string {
	if n.Type == html.ElementNode && hasClass(n, descriptorClass) {
		var sb strings.Builder
		collectText(n, &sb)
		return strings.TrimSpace(sb.String())
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findDescriptor(c); found != "" {
			return found
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
