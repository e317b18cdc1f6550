package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/safatanc/travel-checkout/internal/app/errors"
	"github.com/safatanc/travel-checkout/internal/app/models"
	"github.com/safatanc/travel-checkout/internal/infrastructures"
)

type ConnectService struct {
	baseURL    string
	httpClient *http.Client
}

func NewConnectService(cfg *infrastructures.AppConfig) *ConnectService {
	return &ConnectService{
		baseURL:    cfg.ConnectBaseURL,
		httpClient: &http.Client{},
	}
}

func (s *ConnectService) GetCurrentUser(ctx context.Context, accessToken string) (*models.ConnectUser, error) {
	if accessToken == "" {
		return nil, errors.NewUnauthorizedError("Access token is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/users/me", nil)
	if err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to build connect request")
	}

	// Check if accessToken is Bearer token
	if strings.HasPrefix(accessToken, "Bearer ") {
		req.Header.Set("Authorization", accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to reach connect service")
	}
	defer resp.Body.Close()

	var webResponse models.WebResponse[models.ConnectUser]
	if err := json.NewDecoder(resp.Body).Decode(&webResponse); err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to decode response body")
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.NewUnauthorizedError(webResponse.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewInternalServerError(nil, "Connect service returned "+resp.Status)
	}

	return &webResponse.Data, nil
}
