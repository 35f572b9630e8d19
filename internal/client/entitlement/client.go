// Package entitlement содержит клиент API сервиса подписок и построенный
// поверх него наблюдатель доступа: машину состояний, которую встраивают
// приложения холдинга, чтобы узнавать, есть ли у пользователя оплаченный
// доступ к сервису, и опрашивать сервис после перехода на страницу оплаты.
package entitlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/magabrotheeeer/entitlement-service/internal/models"
)

// Config описывает параметры клиента API.
type Config struct {
	BaseURL     string        // Адрес сервиса, например http://localhost:8080/api/v1
	ServiceType string        // Сервис, доступ к которому проверяется
	Timeout     time.Duration // Таймаут HTTP-запросов, по умолчанию 10 секунд
}

// Client — HTTP-клиент API сервиса подписок. Токен пользователя задается
// через SetToken и передается в заголовке Authorization.
type Client struct {
	cfg        Config
	httpClient *http.Client
	token      string
}

// apiResponse повторяет структуру ответа сервера.
type apiResponse struct {
	Status    string          `json:"status"`
	ErrorKind string          `json:"error_kind"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
}

// NewClient создает новый Client с переданной конфигурацией.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// SetToken задает bearer-токен пользователя для последующих запросов.
func (c *Client) SetToken(token string) {
	c.token = token
}

// SetServiceType меняет сервис, доступ к которому проверяется.
func (c *Client) SetServiceType(serviceType string) {
	c.cfg.ServiceType = serviceType
}

// CheckAccess проверяет доступ текущего пользователя к сервису.
func (c *Client) CheckAccess(ctx context.Context) (*models.AccessResult, error) {
	const op = "entitlement.CheckAccess"

	body := map[string]string{"service_type": c.cfg.ServiceType}
	var result models.AccessResult
	if err := c.post(ctx, "/entitlements/check", body, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// CreateCheckout открывает checkout-сессию и возвращает адрес страницы оплаты.
func (c *Client) CreateCheckout(ctx context.Context, subscriptionType string) (string, error) {
	const op = "entitlement.CreateCheckout"

	body := map[string]string{
		"service_type":      c.cfg.ServiceType,
		"subscription_type": subscriptionType,
	}
	var result struct {
		URL string `json:"url"`
	}
	if err := c.post(ctx, "/checkout", body, &result); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return result.URL, nil
}

// VerifySession подтверждает оплату checkout-сессии после возврата
// со страницы провайдера.
func (c *Client) VerifySession(ctx context.Context, sessionID string) (bool, error) {
	const op = "entitlement.VerifySession"

	body := map[string]string{"session_id": sessionID}
	var result struct {
		Active bool `json:"active"`
	}
	if err := c.post(ctx, "/checkout/verify", body, &result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return result.Active, nil
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var apiResp apiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
	}
	if apiResp.Status != "OK" {
		return fmt.Errorf("server error (%s): %s", apiResp.ErrorKind, apiResp.Error)
	}
	if result != nil && len(apiResp.Data) > 0 {
		if err := json.Unmarshal(apiResp.Data, result); err != nil {
			return err
		}
	}
	return nil
}
