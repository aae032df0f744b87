// Package client talks to the upstream república API. It owns the session
// token, maps the wire payloads into core types and treats a 404 on any
// listing endpoint as an empty collection, mirroring how the web app
// consumes the same API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contas/internal/core"
	"contas/internal/log"
	"contas/internal/metrics"
)

const defaultTimeout = 15 * time.Second

// Client is an HTTP client for the upstream API.
type Client struct {
	baseURL string
	http    *http.Client
	auth    *AuthContext
	logger  *log.Logger
}

// New creates a client for the API at baseURL. A nil logger is replaced
// with a default one.
func New(baseURL string, auth *AuthContext, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		auth:    auth,
		logger:  logger.WithComponent(log.ComponentClient),
	}
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login authenticates against the upstream API and stores the returned
// token. The endpoint expects form-encoded credentials with the email in
// the username field.
func (c *Client) Login(ctx context.Context, email, password string) error {
	form := url.Values{
		"username": {email},
		"password": {password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login: unexpected status %d", resp.StatusCode)
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}
	if body.AccessToken == "" {
		return fmt.Errorf("login: empty access token in response")
	}

	c.auth.Set(body.AccessToken, body.TokenType)
	c.logger.InfoContext(ctx, "logged in to upstream API")
	return nil
}

// Logout drops the stored session token. The upstream API keeps no
// server-side session, so no request is made.
func (c *Client) Logout() {
	c.auth.Clear()
	c.logger.Info("session cleared")
}

// get performs an authenticated GET and decodes the JSON body into out.
// A 404 reports notFound=true with no error so list endpoints can map it
// to an empty collection. A 401 clears the session.
func (c *Client) get(ctx context.Context, path string, out any) (notFound bool, err error) {
	authz, ok := c.auth.Authorization()
	if !ok {
		return false, ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", authz)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveUpstreamRequest(metrics.ResultError, time.Since(start))
		return false, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstreamRequest(upstreamResult(resp.StatusCode), time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return true, nil
	case http.StatusUnauthorized:
		c.auth.Clear()
		c.logger.WarnContext(ctx, "upstream rejected session token", "path", path)
		return false, ErrUnauthorized
	default:
		return false, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decoding response for %s: %w", path, err)
	}
	return false, nil
}

func upstreamResult(status int) string {
	if status == http.StatusOK || status == http.StatusNotFound {
		return metrics.ResultSuccess
	}
	return metrics.ResultError
}

type expenseDTO struct {
	ID             int64   `json:"id"`
	Descricao      string  `json:"descricao"`
	ValorTotal     float64 `json:"valor_total"`
	DataVencimento string  `json:"data_vencimento"`
	Categoria      string  `json:"categoria"`
	Status         string  `json:"status"`
}

type expensesResponse struct {
	Despesas []expenseDTO `json:"despesas"`
}

func (d expenseDTO) toCore() (core.Expense, error) {
	due, err := core.ParseCalendarDate(d.DataVencimento)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: due date %q: %w", d.ID, d.DataVencimento, err)
	}
	return core.Expense{
		ID:          d.ID,
		Description: d.Descricao,
		TotalValue:  core.MoneyFromFloat(d.ValorTotal),
		DueDate:     due,
		Category:    core.Category(d.Categoria),
		Status:      core.ParseStoredStatus(d.Status),
	}, nil
}

// ListExpenses fetches every expense of a república.
func (c *Client) ListExpenses(ctx context.Context, republicID int64) ([]core.Expense, error) {
	var body expensesResponse
	notFound, err := c.get(ctx, fmt.Sprintf("/despesas/%d", republicID), &body)
	if err != nil {
		return nil, err
	}
	if notFound {
		return []core.Expense{}, nil
	}

	expenses := make([]core.Expense, 0, len(body.Despesas))
	for _, dto := range body.Despesas {
		e, err := dto.toCore()
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

type memberDTO struct {
	ID        int64  `json:"id"`
	Fullname  string `json:"fullname"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
	RoomID    *int64 `json:"room_id"`
}

type membersResponse struct {
	Members []memberDTO `json:"members"`
}

// ListMembers fetches the current roster of a república.
func (c *Client) ListMembers(ctx context.Context, republicID int64) ([]core.Member, error) {
	var body membersResponse
	notFound, err := c.get(ctx, fmt.Sprintf("/membros/%d", republicID), &body)
	if err != nil {
		return nil, err
	}
	if notFound {
		return []core.Member{}, nil
	}

	members := make([]core.Member, 0, len(body.Members))
	for _, dto := range body.Members {
		members = append(members, core.Member{
			ID:        dto.ID,
			FullName:  dto.Fullname,
			Email:     dto.Email,
			Telephone: dto.Telephone,
			RoomID:    dto.RoomID,
		})
	}
	return members, nil
}

type paymentDTO struct {
	ID            int64   `json:"id"`
	DespesaID     int64   `json:"despesa_id"`
	MembroID      int64   `json:"membro_id"`
	ValorPago     float64 `json:"valor_pago"`
	DataPagamento string  `json:"data_pagamento"`
}

type paymentsResponse struct {
	Pagamentos []paymentDTO `json:"pagamentos"`
}

// ListPayments fetches the payments recorded against one expense. Expenses
// with no payments answer 404 upstream, which maps to an empty slice.
func (c *Client) ListPayments(ctx context.Context, republicID, expenseID int64) ([]core.Payment, error) {
	var body paymentsResponse
	notFound, err := c.get(ctx, fmt.Sprintf("/despesas/%d/%d/pagamentos", republicID, expenseID), &body)
	if err != nil {
		return nil, err
	}
	if notFound {
		return []core.Payment{}, nil
	}

	payments := make([]core.Payment, 0, len(body.Pagamentos))
	for _, dto := range body.Pagamentos {
		paidAt, err := core.ParseInstant(dto.DataPagamento)
		if err != nil {
			return nil, fmt.Errorf("payment %d: paid at %q: %w", dto.ID, dto.DataPagamento, err)
		}
		expenseRef := dto.DespesaID
		if expenseRef == 0 {
			expenseRef = expenseID
		}
		payments = append(payments, core.Payment{
			ID:         dto.ID,
			ExpenseID:  expenseRef,
			MemberID:   dto.MembroID,
			AmountPaid: core.MoneyFromFloat(dto.ValorPago),
			PaidAt:     paidAt,
		})
	}
	return payments, nil
}
