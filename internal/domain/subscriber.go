package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Subscriber is a callback endpoint registered for one product type.
// The pair (URL, ProductType) is unique.
type Subscriber struct {
	URL         string `json:"url"`
	ProductType string `json:"product_type"`
}

// SubscriberRequest is the inbound payload for subscribe and unsubscribe.
type SubscriberRequest struct {
	URL         string `json:"url"`
	ProductType string `json:"product_type"`
}

// Validate checks both fields and requires an absolute http(s) callback URL.
func (r *SubscriberRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: url must not be empty", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.ProductType) == "" {
		return fmt.Errorf("%w: product_type must not be empty", ErrInvalidRequest)
	}

	u, err := url.Parse(strings.TrimSpace(r.URL))
	if err != nil {
		return fmt.Errorf("%w: url is not parseable", ErrInvalidRequest)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url scheme must be http or https", ErrInvalidRequest)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url must include a host", ErrInvalidRequest)
	}
	return nil
}

// Subscriber returns the normalised subscriber the request describes: both
// fields trimmed, URL scheme and host lowercased. Call Validate first.
func (r *SubscriberRequest) Subscriber() Subscriber {
	return Subscriber{
		URL:         normaliseURL(r.URL),
		ProductType: strings.TrimSpace(r.ProductType),
	}
}

func normaliseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Host = strings.ToLower(u.Host)
	return u.String()
}
