package models

// AttachPaymentMethodRequest is sent to the billing provider to bind a
// stored payment method to a customer profile.
type AttachPaymentMethodRequest struct {
	CustomerID      string `json:"customer_id"`
	PaymentMethodID string `json:"payment_method_id"`
}

type BillingPaymentMethod struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Type       string `json:"type"`
	Last4      string `json:"last4,omitempty"`
}
