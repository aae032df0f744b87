package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contas/internal/core"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *AuthContext) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	auth := NewAuthContext()
	return New(srv.URL, auth, nil), auth
}

func authedClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	c, auth := newTestClient(t, handler)
	auth.Set("test-token", "Bearer")
	return c
}

func TestLogin(t *testing.T) {
	c, auth := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "ana@rep.br", r.PostForm.Get("username"))
		assert.Equal(t, "s3cret", r.PostForm.Get("password"))

		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "abc123",
			"token_type":   "bearer",
		})
	}))

	err := c.Login(context.Background(), "ana@rep.br", "s3cret")
	require.NoError(t, err)

	authz, ok := auth.Authorization()
	require.True(t, ok)
	assert.Equal(t, "bearer abc123", authz)
}

func TestLogin_BadCredentials(t *testing.T) {
	c, auth := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := c.Login(context.Background(), "ana@rep.br", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, ok := auth.Authorization()
	assert.False(t, ok)
}

func TestListExpenses(t *testing.T) {
	c := authedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/despesas/7", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"despesas": []map[string]any{
				{
					"id":              int64(3),
					"descricao":       "Conta de luz",
					"valor_total":     150.5,
					"data_vencimento": "2026-03-10",
					"categoria":       "luz",
					"status":          "Pago",
				},
			},
		})
	}))

	expenses, err := c.ListExpenses(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, expenses, 1)

	e := expenses[0]
	assert.Equal(t, int64(3), e.ID)
	assert.Equal(t, "Conta de luz", e.Description)
	assert.Equal(t, int64(15050), e.TotalValue.Cents)
	assert.Equal(t, core.NewCalendarDate(2026, 3, 10), e.DueDate)
	assert.Equal(t, core.CategoryLuz, e.Category)
	assert.Equal(t, core.StoredPaid, e.Status)
}

func TestListExpenses_NotFoundIsEmpty(t *testing.T) {
	c := authedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	expenses, err := c.ListExpenses(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestListExpenses_UnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	auth := NewAuthContext()
	auth.Set("stale-token", "Bearer")
	c := New(srv.URL, auth, nil)

	_, err := c.ListExpenses(context.Background(), 7)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, ok := auth.Authorization()
	assert.False(t, ok)
}

func TestGet_WithoutSession(t *testing.T) {
	called := false
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := c.ListExpenses(context.Background(), 7)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, called, "no request should reach upstream without a token")
}

func TestListMembers(t *testing.T) {
	c := authedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/membros/7", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"members": []map[string]any{
				{"id": int64(1), "fullname": "Ana Souza", "email": "ana@rep.br"},
			},
		})
	}))

	members, err := c.ListMembers(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Ana Souza", members[0].FullName)
	assert.Nil(t, members[0].RoomID)
}

func TestFetchSnapshot(t *testing.T) {
	c := authedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/despesas/7":
			json.NewEncoder(w).Encode(map[string]any{
				"despesas": []map[string]any{
					{"id": int64(1), "descricao": "Luz", "valor_total": 100.0, "data_vencimento": "2026-03-10", "categoria": "luz", "status": "pendente"},
					{"id": int64(2), "descricao": "Água", "valor_total": 80.0, "data_vencimento": "2026-03-12", "categoria": "agua", "status": "pago"},
				},
			})
		case "/membros/7":
			json.NewEncoder(w).Encode(map[string]any{
				"members": []map[string]any{
					{"id": int64(10), "fullname": "Ana Souza"},
					{"id": int64(11), "fullname": "Bruno Lima"},
				},
			})
		case "/despesas/7/1/pagamentos":
			// Expense without payments answers 404 upstream.
			w.WriteHeader(http.StatusNotFound)
		case "/despesas/7/2/pagamentos":
			json.NewEncoder(w).Encode(map[string]any{
				"pagamentos": []map[string]any{
					{"id": int64(21), "despesa_id": int64(2), "membro_id": int64(10), "valor_pago": 40.0, "data_pagamento": "2026-03-11T12:00:00Z"},
					{"id": int64(20), "membro_id": int64(11), "valor_pago": 40.0, "data_pagamento": "2026-03-11T11:00:00Z"},
				},
			})
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	snap, err := c.FetchSnapshot(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), snap.RepublicID)
	assert.Len(t, snap.Expenses, 2)
	assert.Len(t, snap.Members, 2)

	require.Len(t, snap.Payments, 2)
	// Payments come back sorted by ID regardless of fetch order.
	assert.Equal(t, int64(20), snap.Payments[0].ID)
	assert.Equal(t, int64(21), snap.Payments[1].ID)
	// A missing despesa_id falls back to the expense the payment was fetched for.
	assert.Equal(t, int64(2), snap.Payments[0].ExpenseID)
}

func TestFetchSnapshot_FailsOnAnyError(t *testing.T) {
	c := authedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/membros/7" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"despesas": []any{}})
	}))

	_, err := c.FetchSnapshot(context.Background(), 7)
	assert.Error(t, err)
}
