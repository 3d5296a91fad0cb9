package me

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/streaming-gate/internal/http/middlewarectx"
	"github.com/magabrotheeeer/streaming-gate/internal/models"
	"github.com/magabrotheeeer/streaming-gate/internal/subscription"
)

func TestMeHandler(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(90 * time.Minute)

	tests := []struct {
		name          string
		caller        *middlewarectx.Caller
		wantStatus    int
		wantState     subscription.State
		wantRemaining int64
	}{
		{
			name: "active subscription",
			caller: &middlewarectx.Caller{Profile: &models.Profile{
				ID: "acc-1", Email: "neo@example.com", Role: models.RoleUser, IsActive: true,
				SubscriptionExpiresAt: &expires, PasswordHash: "hash",
			}},
			wantStatus:    http.StatusOK,
			wantState:     subscription.Active,
			wantRemaining: 5400,
		},
		{
			name: "unlimited subscription",
			caller: &middlewarectx.Caller{Profile: &models.Profile{
				ID: "acc-2", Role: models.RoleUser, IsActive: true,
			}},
			wantStatus: http.StatusOK,
			wantState:  subscription.Forever,
		},
		{
			name:       "no caller",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
			h.now = func() time.Time { return now }

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.caller != nil {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.CallerKey, tt.caller))
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.NotContains(t, w.Body.String(), "hash")

			var body struct {
				Status string `json:"status"`
				Data   View   `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "OK", body.Status)
			assert.Equal(t, tt.caller.Profile.ID, body.Data.Profile.ID)
			assert.Equal(t, tt.wantState, body.Data.Subscription.State)
			assert.Equal(t, tt.wantRemaining, body.Data.Subscription.RemainingSeconds)
		})
	}
}
