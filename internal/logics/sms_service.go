package logics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"identity-server/configs"
	"identity-server/internal/identity"

	"go.uber.org/zap"
)

// SMSService delivers SMS messages through the configured provider.
// "webhook" posts to an HTTP gateway; "log" only writes to the logger and is
// meant for development.
type SMSService struct {
	provider   string
	gatewayURL string
	apiKey     string
	sender     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewSMSService(cfg configs.SMSConfig, logger *zap.Logger) *SMSService {
	return &SMSService{
		provider:   cfg.Provider,
		gatewayURL: cfg.GatewayURL,
		apiKey:     cfg.APIKey,
		sender:     cfg.Sender,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type smsGatewayRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

// SendSMS dispatches one message to one phone number.
func (s *SMSService) SendSMS(destination, body string) error {
	if s.provider == "log" {
		s.logger.Info("SMS (log provider)",
			zap.String("to", destination),
			zap.String("body", body))
		return nil
	}

	payload, err := json.Marshal(smsGatewayRequest{
		To:   destination,
		From: s.sender,
		Body: body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// Sender adapts the service to the function contract the identity engines
// consume.
func (s *SMSService) Sender() identity.SMSSender {
	return s.SendSMS
}
