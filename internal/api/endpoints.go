package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"journal/internal/core"
)

const (
	loginPath        = "/auth/login"
	categoriesPath   = "/api/categories"
	transactionsPath = "/api/transactions"
	budgetPath       = "/api/budget"
)

// LoginResponse is the login payload. Raw keeps the full body for callers that
// need fields beyond the token.
type LoginResponse struct {
	Token   string
	Message string
	Raw     json.RawMessage
}

// NewTransaction is the create payload. Every field is sent as text.
type NewTransaction struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Amount   string `json:"amount"`
}

type newCategory struct {
	Name     string `json:"name"`
	ColorHex string `json:"color_hex"`
}

type replyUpdate struct {
	Reply string `json:"reply"`
}

// Login posts credentials. The token is not stored here.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	env, err := c.Do(ctx, loginPath, Options{
		Method: http.MethodPost,
		Body:   map[string]string{"username": username, "password": password},
	})
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{Token: env.Token, Message: env.Message, Raw: env.Raw}, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	env, err := c.Do(ctx, categoriesPath, Options{})
	if err != nil {
		return nil, err
	}
	return decodeList[core.Category](env, categoriesPath)
}

func (c *Client) CreateCategory(ctx context.Context, name, colorHex string) error {
	_, err := c.Do(ctx, categoriesPath, Options{
		Method: http.MethodPost,
		Body:   newCategory{Name: name, ColorHex: colorHex},
	})
	return err
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	_, err := c.Do(ctx, categoriesPath+"/"+url.PathEscape(id), Options{Method: http.MethodDelete})
	return err
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	env, err := c.Do(ctx, transactionsPath, Options{})
	if err != nil {
		return nil, err
	}
	return decodeList[core.Transaction](env, transactionsPath)
}

func (c *Client) CreateTransaction(ctx context.Context, t NewTransaction) error {
	_, err := c.Do(ctx, transactionsPath, Options{Method: http.MethodPost, Body: t})
	return err
}

// UpdateReply sends a partial update carrying only the reply field. An empty
// reply clears it.
func (c *Client) UpdateReply(ctx context.Context, id, reply string) error {
	_, err := c.Do(ctx, transactionsPath+"/"+url.PathEscape(id), Options{
		Method: http.MethodPut,
		Body:   replyUpdate{Reply: reply},
	})
	return err
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	_, err := c.Do(ctx, transactionsPath+"/"+url.PathEscape(id), Options{Method: http.MethodDelete})
	return err
}

// GetBudget reads the budget record. The endpoint answers either a bare object
// or one wrapped in data.
func (c *Client) GetBudget(ctx context.Context) (core.Budget, error) {
	env, err := c.Do(ctx, budgetPath, Options{})
	if err != nil {
		return core.Budget{}, err
	}
	payload := env.Data
	if len(payload) == 0 {
		payload = env.Raw
	}
	if len(payload) > 0 && payload[0] == '[' {
		list, err := decodeList[core.Budget](Envelope{Data: payload}, budgetPath)
		if err != nil {
			return core.Budget{}, err
		}
		if len(list) == 0 {
			return core.Budget{}, nil
		}
		return list[0], nil
	}
	var b core.Budget
	if err := json.Unmarshal(payload, &b); err != nil {
		return core.Budget{}, &Error{Kind: KindMalformed, Message: fmt.Sprintf("unexpected %s payload", budgetPath), Err: err}
	}
	return b, nil
}
