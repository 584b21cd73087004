package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the product state change a notification announces.
type Status int

const (
	StatusUnknown Status = iota
	StatusCreated
	StatusDeleted
	StatusPromoted
)

func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusDeleted, StatusPromoted:
		return true
	}
	return false
}

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "CREATED"
	case StatusDeleted:
		return "DELETED"
	case StatusPromoted:
		return "PROMOTED"
	}
	return "UNKNOWN"
}

// ParseStatus accepts the wire names case-insensitively.
func ParseStatus(v string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "CREATED":
		return StatusCreated, nil
	case "DELETED":
		return StatusDeleted, nil
	case "PROMOTED":
		return StatusPromoted, nil
	}
	return StatusUnknown, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, v)
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("marshal status: invalid value %d", int(s))
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: status must be a string", ErrInvalidRequest)
	}
	parsed, err := ParseStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Notification describes a product state change broadcast to subscribers.
// It is treated as immutable once it reaches the service.
type Notification struct {
	ID           string `json:"id"`
	ProductType  string `json:"product_type"`
	ProductURL   string `json:"product_url"`
	ProductTitle string `json:"product_title,omitempty"`
	Status       Status `json:"status"`
}

func (n *Notification) Validate() error {
	if strings.TrimSpace(n.ProductType) == "" {
		return fmt.Errorf("%w: product_type must not be empty", ErrInvalidRequest)
	}
	if !n.Status.IsValid() {
		return fmt.Errorf("%w: status must be CREATED, DELETED, or PROMOTED", ErrInvalidRequest)
	}
	return nil
}
