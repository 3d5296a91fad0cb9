package update

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/streaming-gate/internal/models"
	"github.com/magabrotheeeer/streaming-gate/internal/services/profile"
)

type MockService struct{ mock.Mock }

func (m *MockService) Update(ctx context.Context, accountID string, in profile.UpdateInput) (*models.Profile, error) {
	args := m.Called(ctx, accountID, in)
	if res := args.Get(0); res != nil {
		return res.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

const accountID = "8a6e0804-2bd0-4672-b79d-d97027f9071a"

func TestUpdateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		id             string
		body           string
		setupMock      func(m *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "отключение аккаунта",
			id:   accountID,
			body: `{"is_active":false}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, accountID, mock.MatchedBy(func(in profile.UpdateInput) bool {
					return in.IsActive != nil && !*in.IsActive && in.Role == nil
				})).Return(&models.Profile{ID: accountID, IsActive: false}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"is_active":false`,
		},
		{
			name: "назначение роли",
			id:   accountID,
			body: `{"role":"admin"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, accountID, mock.MatchedBy(func(in profile.UpdateInput) bool {
					return in.Role != nil && *in.Role == models.RoleAdmin
				})).Return(&models.Profile{ID: accountID, Role: models.RoleAdmin}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"role":"admin"`,
		},
		{
			name: "бессрочная подписка",
			id:   accountID,
			body: `{"clear_subscription_expiry":true}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, accountID, profile.UpdateInput{ClearSubscriptionExpiry: true}).
					Return(&models.Profile{ID: accountID}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"subscription_expires_at":null`,
		},
		{
			name:           "некорректный id",
			id:             "42",
			body:           `{"is_active":true}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid account id`,
		},
		{
			name:           "пустое обновление",
			id:             accountID,
			body:           `{}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `nothing to update`,
		},
		{
			name:           "противоречивые поля подписки",
			id:             accountID,
			body:           `{"clear_subscription_expiry":true,"subscription_expires_at":"2030-01-01T00:00:00Z"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `conflicts`,
		},
		{
			name:           "неизвестная роль",
			id:             accountID,
			body:           `{"role":"root"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Role must be one of`,
		},
		{
			name: "не найдено",
			id:   accountID,
			body: `{"full_name":"Neo"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, accountID, mock.Anything).Return(nil, profile.ErrNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `account not found`,
		},
		{
			name: "email занят",
			id:   accountID,
			body: `{"email":"taken@example.com"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, accountID, mock.Anything).Return(nil, profile.ErrEmailTaken).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `email already taken`,
		},
		{
			name: "ошибка хранилища",
			id:   accountID,
			body: `{"full_name":"Neo"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, accountID, mock.Anything).Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not update account`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/accounts/"+tt.id, strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
