package domain

// DeliveryFailure records why one subscriber callback was not delivered.
type DeliveryFailure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// DeliveryReport summarises one notify call. Failed is never nil so it
// encodes as an empty JSON array.
type DeliveryReport struct {
	Delivered int               `json:"delivered"`
	Failed    []DeliveryFailure `json:"failed"`
}

func NewDeliveryReport() *DeliveryReport {
	return &DeliveryReport{Failed: make([]DeliveryFailure, 0)}
}
