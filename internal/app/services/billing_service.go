package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/safatanc/travel-checkout/internal/app/errors"
	"github.com/safatanc/travel-checkout/internal/app/models"
	"github.com/safatanc/travel-checkout/internal/infrastructures"
	"github.com/sirupsen/logrus"
)

// BillingService binds stored payment methods to the user's billing
// customer profile at the external provider.
type BillingService struct {
	client *infrastructures.BillingClient
}

func NewBillingService(client *infrastructures.BillingClient) *BillingService {
	return &BillingService{
		client: client,
	}
}

func (s *BillingService) AttachPaymentMethod(ctx context.Context, user *models.User, paymentMethodID string) (*models.BillingPaymentMethod, error) {
	if !s.client.Enabled() {
		return nil, errors.NewInvalidStateError("Billing provider is not configured")
	}
	if user.BillingCustomerID == nil || *user.BillingCustomerID == "" {
		return nil, errors.NewInvalidStateError("User has no billing profile")
	}

	reqBody := models.AttachPaymentMethodRequest{
		CustomerID:      *user.BillingCustomerID,
		PaymentMethodID: paymentMethodID,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to marshal request")
	}

	endpoint := fmt.Sprintf("/customers/%s/payment-methods", *user.BillingCustomerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.GetFullURL(endpoint), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.client.Config.SecretKey, "")

	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to reach billing provider")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to read response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NewNotFoundError("Payment method not found")
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		logrus.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Warn("billing provider rejected payment method")
		return nil, errors.NewBusinessRuleError("Payment method cannot be attached")
	case resp.StatusCode >= 500:
		return nil, errors.NewInternalServerError(fmt.Errorf("billing provider returned %d: %s", resp.StatusCode, body), "Billing provider is unavailable")
	}

	var paymentMethod models.BillingPaymentMethod
	if err := json.Unmarshal(body, &paymentMethod); err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to decode response")
	}

	return &paymentMethod, nil
}
