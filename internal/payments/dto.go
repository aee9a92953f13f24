package payments

// CreateIntentRequest is the body of POST /api/payments/create-intent.
type CreateIntentRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
}

// ConfirmRequest is the body of POST /api/payments/confirm.
type ConfirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}

type IntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}
