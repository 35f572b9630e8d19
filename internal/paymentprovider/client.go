// Package paymentprovider реализует клиент платежного провайдера (Stripe):
// поиск и создание клиентов, открытие hosted checkout сессий и проверку
// статуса оплаты.
package paymentprovider

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// Client обертка над Stripe API.
type Client struct {
	api *client.API
}

// NewClient создаёт новый клиент Stripe с заданным секретным ключом.
func NewClient(secretKey string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api}
}

// FindCustomerByEmail возвращает ID клиента с данным email
// или пустую строку, если такого клиента нет.
func (c *Client) FindCustomerByEmail(email string) (string, error) {
	const op = "paymentprovider.FindCustomerByEmail"
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Limit = stripe.Int64(1)

	iter := c.api.Customers.List(params)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return "", nil
}

// CreateCustomer создаёт нового клиента у провайдера и возвращает его ID.
func (c *Client) CreateCustomer(email, userUID string) (string, error) {
	const op = "paymentprovider.CreateCustomer"
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.AddMetadata("user_uid", userUID)

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession открывает hosted checkout сессию на одну позицию
// и возвращает её вместе с адресом страницы оплаты.
func (c *Client) CreateCheckoutSession(p CreateSessionParams) (*Session, error) {
	const op = "paymentprovider.CreateCheckoutSession"

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.ProductName),
					},
					UnitAmount: stripe.Int64(p.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	} else {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return fromStripeSession(sess), nil
}

// GetCheckoutSession возвращает checkout сессию по её ID.
func (c *Client) GetCheckoutSession(id string) (*Session, error) {
	const op = "paymentprovider.GetCheckoutSession"
	sess, err := c.api.CheckoutSessions.Get(id, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return fromStripeSession(sess), nil
}

func fromStripeSession(sess *stripe.CheckoutSession) *Session {
	return &Session{
		ID:       sess.ID,
		URL:      sess.URL,
		Paid:     sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Metadata: sess.Metadata,
	}
}
