package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/streaming-gate/internal/lib/password"
	"github.com/magabrotheeeer/streaming-gate/internal/models"
	"github.com/magabrotheeeer/streaming-gate/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *RepoMock) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *RepoMock) CreateProfile(ctx context.Context, p models.Profile) (*models.Profile, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *RepoMock) UpdateProfile(ctx context.Context, id string, u models.ProfileUpdate) (*models.Profile, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *RepoMock) DeleteProfile(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) ListProfiles(ctx context.Context, limit, offset int) ([]*models.Profile, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Profile), args.Error(1)
}

type RevokerMock struct{ mock.Mock }

func (m *RevokerMock) RevokeAll(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func ptr[T any](v T) *T { return &v }

func TestService_Get(t *testing.T) {
	profile := &models.Profile{ID: "acc-1", Role: models.RoleUser, IsActive: true}

	tests := []struct {
		name      string
		setupMock func(r *RepoMock)
		want      *models.Profile
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(r *RepoMock) {
				r.On("GetProfile", mock.Anything, "acc-1").Return(profile, nil).Once()
			},
			want: profile,
		},
		{
			name: "not found",
			setupMock: func(r *RepoMock) {
				r.On("GetProfile", mock.Anything, "acc-1").
					Return(nil, repository.ErrProfileNotFound).Once()
			},
			wantErr: ErrNotFound,
		},
		{
			name: "store failure",
			setupMock: func(r *RepoMock) {
				r.On("GetProfile", mock.Anything, "acc-1").
					Return(nil, errors.New("connection reset")).Once()
			},
			wantErr: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMock(repo)
			svc := NewService(repo, new(RevokerMock), newNoopLogger(), time.Second)

			got, err := svc.Get(context.Background(), "acc-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Get_Timeout(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetProfile", mock.Anything, "acc-1").
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		}).
		Return(nil, context.DeadlineExceeded).Once()

	svc := NewService(repo, new(RevokerMock), newNoopLogger(), 20*time.Millisecond)

	start := time.Now()
	got, err := svc.Get(context.Background(), "acc-1")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	repo.AssertExpectations(t)
}

func TestService_Authenticate(t *testing.T) {
	hash, err := password.GetHash("secret123")
	require.NoError(t, err)

	active := &models.Profile{ID: "acc-1", Email: "neo@example.com", PasswordHash: hash, IsActive: true}
	disabled := &models.Profile{ID: "acc-2", Email: "neo@example.com", PasswordHash: hash, IsActive: false}

	tests := []struct {
		name      string
		password  string
		setupMock func(r *RepoMock)
		wantErr   error
	}{
		{
			name:     "success",
			password: "secret123",
			setupMock: func(r *RepoMock) {
				r.On("GetProfileByEmail", mock.Anything, "neo@example.com").Return(active, nil).Once()
			},
		},
		{
			name:     "wrong password",
			password: "nope",
			setupMock: func(r *RepoMock) {
				r.On("GetProfileByEmail", mock.Anything, "neo@example.com").Return(active, nil).Once()
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			password: "secret123",
			setupMock: func(r *RepoMock) {
				r.On("GetProfileByEmail", mock.Anything, "neo@example.com").
					Return(nil, repository.ErrProfileNotFound).Once()
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "disabled account",
			password: "secret123",
			setupMock: func(r *RepoMock) {
				r.On("GetProfileByEmail", mock.Anything, "neo@example.com").Return(disabled, nil).Once()
			},
			wantErr: ErrAccountDisabled,
		},
		{
			name:     "store failure",
			password: "secret123",
			setupMock: func(r *RepoMock) {
				r.On("GetProfileByEmail", mock.Anything, "neo@example.com").
					Return(nil, errors.New("db down")).Once()
			},
			wantErr: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMock(repo)
			svc := NewService(repo, new(RevokerMock), newNoopLogger(), 0)

			got, err := svc.Authenticate(context.Background(), "  Neo@Example.com ", tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "acc-1", got.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Provision(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.FixedZone("MSK", 3*3600))

	t.Run("success", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("CreateProfile", mock.Anything, mock.MatchedBy(func(p models.Profile) bool {
			return p.Email == "trinity@example.com" &&
				p.Role == models.RoleUser &&
				p.IsActive &&
				p.SubscriptionExpiresAt != nil &&
				p.SubscriptionExpiresAt.Location() == time.UTC &&
				password.CompareHash(p.PasswordHash, "secret123") == nil
		})).Return(&models.Profile{ID: "acc-7", Role: models.RoleUser}, nil).Once()

		svc := NewService(repo, new(RevokerMock), newNoopLogger(), 0)
		got, err := svc.Provision(context.Background(), ProvisionInput{
			Email:                 "Trinity@Example.com",
			FullName:              "Trinity",
			Password:              "secret123",
			SubscriptionExpiresAt: &expires,
		})
		require.NoError(t, err)
		assert.Equal(t, "acc-7", got.ID)
		repo.AssertExpectations(t)
	})

	t.Run("email taken", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("CreateProfile", mock.Anything, mock.Anything).Return(nil, repository.ErrEmailTaken).Once()

		svc := NewService(repo, new(RevokerMock), newNoopLogger(), 0)
		_, err := svc.Provision(context.Background(), ProvisionInput{Email: "a@b.c", Password: "secret123"})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("invalid role", func(t *testing.T) {
		repo := new(RepoMock)
		svc := NewService(repo, new(RevokerMock), newNoopLogger(), 0)
		_, err := svc.Provision(context.Background(), ProvisionInput{Email: "a@b.c", Password: "x", Role: "root"})
		assert.ErrorIs(t, err, ErrInvalidRole)
		repo.AssertNotCalled(t, "CreateProfile", mock.Anything, mock.Anything)
	})
}

func TestService_Update(t *testing.T) {
	user := &models.Profile{ID: "acc-1", Role: models.RoleUser, IsActive: true}
	admin := &models.Profile{ID: "acc-1", Role: models.RoleAdmin, IsActive: true}

	tests := []struct {
		name       string
		in         UpdateInput
		setupMocks func(r *RepoMock, s *RevokerMock)
		wantErr    error
	}{
		{
			name: "rename does not revoke",
			in:   UpdateInput{FullName: ptr("Neo")},
			setupMocks: func(r *RepoMock, _ *RevokerMock) {
				r.On("UpdateProfile", mock.Anything, "acc-1", models.ProfileUpdate{FullName: ptr("Neo")}).
					Return(user, nil).Once()
			},
		},
		{
			name: "disable keeps sessions for the gate",
			in:   UpdateInput{IsActive: ptr(false)},
			setupMocks: func(r *RepoMock, _ *RevokerMock) {
				r.On("UpdateProfile", mock.Anything, "acc-1", models.ProfileUpdate{IsActive: ptr(false)}).
					Return(&models.Profile{ID: "acc-1", Role: models.RoleUser}, nil).Once()
			},
		},
		{
			name: "role change",
			in:   UpdateInput{Role: ptr(models.RoleAdmin)},
			setupMocks: func(r *RepoMock, _ *RevokerMock) {
				r.On("UpdateProfile", mock.Anything, "acc-1", models.ProfileUpdate{Role: ptr(models.RoleAdmin)}).
					Return(admin, nil).Once()
			},
		},
		{
			name: "password change revokes sessions",
			in:   UpdateInput{Password: ptr("newsecret")},
			setupMocks: func(r *RepoMock, s *RevokerMock) {
				r.On("UpdateProfile", mock.Anything, "acc-1", mock.MatchedBy(func(u models.ProfileUpdate) bool {
					return u.PasswordHash != nil && password.CompareHash(*u.PasswordHash, "newsecret") == nil
				})).Return(user, nil).Once()
				s.On("RevokeAll", mock.Anything, "acc-1").Return(nil).Once()
			},
		},
		{
			name: "revocation failure is not fatal",
			in:   UpdateInput{Password: ptr("newsecret")},
			setupMocks: func(r *RepoMock, s *RevokerMock) {
				r.On("UpdateProfile", mock.Anything, "acc-1", mock.Anything).Return(user, nil).Once()
				s.On("RevokeAll", mock.Anything, "acc-1").Return(errors.New("redis down")).Once()
			},
		},
		{
			name: "not found",
			in:   UpdateInput{FullName: ptr("Neo")},
			setupMocks: func(r *RepoMock, _ *RevokerMock) {
				r.On("UpdateProfile", mock.Anything, "acc-1", mock.Anything).
					Return(nil, repository.ErrProfileNotFound).Once()
			},
			wantErr: ErrNotFound,
		},
		{
			name: "email taken",
			in:   UpdateInput{Email: ptr("Taken@Example.com")},
			setupMocks: func(r *RepoMock, _ *RevokerMock) {
				r.On("UpdateProfile", mock.Anything, "acc-1", models.ProfileUpdate{Email: ptr("taken@example.com")}).
					Return(nil, repository.ErrEmailTaken).Once()
			},
			wantErr: ErrEmailTaken,
		},
		{
			name:       "invalid role",
			in:         UpdateInput{Role: ptr(models.Role("root"))},
			setupMocks: func(_ *RepoMock, _ *RevokerMock) {},
			wantErr:    ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			revoker := new(RevokerMock)
			tt.setupMocks(repo, revoker)
			svc := NewService(repo, revoker, newNoopLogger(), 0)

			_, err := svc.Update(context.Background(), "acc-1", tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			revoker.AssertExpectations(t)
		})
	}
}

func TestService_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := new(RepoMock)
		revoker := new(RevokerMock)
		repo.On("DeleteProfile", mock.Anything, "acc-1").Return(nil).Once()
		revoker.On("RevokeAll", mock.Anything, "acc-1").Return(nil).Once()

		svc := NewService(repo, revoker, newNoopLogger(), 0)
		require.NoError(t, svc.Delete(context.Background(), "acc-1"))
		repo.AssertExpectations(t)
		revoker.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(RepoMock)
		revoker := new(RevokerMock)
		repo.On("DeleteProfile", mock.Anything, "acc-1").Return(repository.ErrProfileNotFound).Once()

		svc := NewService(repo, revoker, newNoopLogger(), 0)
		assert.ErrorIs(t, svc.Delete(context.Background(), "acc-1"), ErrNotFound)
		revoker.AssertNotCalled(t, "RevokeAll", mock.Anything, mock.Anything)
	})
}

func TestService_List(t *testing.T) {
	repo := new(RepoMock)
	list := []*models.Profile{{ID: "a"}, {ID: "b"}}
	repo.On("ListProfiles", mock.Anything, 10, 20).Return(list, nil).Once()

	svc := NewService(repo, new(RevokerMock), newNoopLogger(), 0)
	got, err := svc.List(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Equal(t, list, got)
	repo.AssertExpectations(t)
}

func TestService_UpdateOwn(t *testing.T) {
	hash, err := password.GetHash("secret123")
	require.NoError(t, err)
	stored := &models.Profile{ID: "acc-1", PasswordHash: hash, IsActive: true}

	tests := []struct {
		name       string
		in         OwnUpdateInput
		setupMocks func(r *RepoMock, s *RevokerMock)
		wantErr    error
	}{
		{
			name: "rename",
			in:   OwnUpdateInput{FullName: ptr("Neo")},
			setupMocks: func(r *RepoMock, _ *RevokerMock) {
				r.On("UpdateProfile", mock.Anything, "acc-1", models.ProfileUpdate{FullName: ptr("Neo")}).
					Return(stored, nil).Once()
			},
		},
		{
			name: "password change revokes sessions",
			in:   OwnUpdateInput{CurrentPassword: "secret123", NewPassword: ptr("newsecret")},
			setupMocks: func(r *RepoMock, s *RevokerMock) {
				r.On("GetProfile", mock.Anything, "acc-1").Return(stored, nil).Once()
				r.On("UpdateProfile", mock.Anything, "acc-1", mock.MatchedBy(func(u models.ProfileUpdate) bool {
					return u.PasswordHash != nil && password.CompareHash(*u.PasswordHash, "newsecret") == nil &&
						u.Role == nil && u.IsActive == nil
				})).Return(stored, nil).Once()
				s.On("RevokeAll", mock.Anything, "acc-1").Return(nil).Once()
			},
		},
		{
			name: "wrong current password",
			in:   OwnUpdateInput{CurrentPassword: "nope", NewPassword: ptr("newsecret")},
			setupMocks: func(r *RepoMock, _ *RevokerMock) {
				r.On("GetProfile", mock.Anything, "acc-1").Return(stored, nil).Once()
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name: "account gone",
			in:   OwnUpdateInput{CurrentPassword: "secret123", NewPassword: ptr("newsecret")},
			setupMocks: func(r *RepoMock, _ *RevokerMock) {
				r.On("GetProfile", mock.Anything, "acc-1").Return(nil, repository.ErrProfileNotFound).Once()
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			revoker := new(RevokerMock)
			tt.setupMocks(repo, revoker)
			svc := NewService(repo, revoker, newNoopLogger(), 0)

			_, err := svc.UpdateOwn(context.Background(), "acc-1", tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			revoker.AssertExpectations(t)
		})
	}
}
