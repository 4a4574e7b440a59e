package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/userregistry/internal/platform/user"
)

// MockRepository is a mock implementation of user.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]*user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var (
	fixedNow     = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	errConnReset = errors.New("connection reset by peer")
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func newService(repo *MockRepository) *user.Service {
	return user.NewService(repo, nil, user.WithClock(func() time.Time { return fixedNow }))
}

func existingUser() *user.User {
	return &user.User{
		ID:        7,
		Name:      "John Doe",
		Email:     "john@example.com",
		Age:       30,
		CreatedAt: fixedNow.Add(-time.Hour),
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	validReq := user.CreateRequest{Name: "John Doe", Email: "john@example.com", Age: intPtr(30)}

	tests := []struct {
		name      string
		req       user.CreateRequest
		setupMock func(*MockRepository)
		wantErr   error
	}{
		{
			name: "valid creation",
			req:  validReq,
			setupMock: func(m *MockRepository) {
				m.On("GetByEmail", ctx, "john@example.com").Return(nil, user.ErrUserNotFound)
				m.On("Create", ctx, mock.AnythingOfType("*user.User")).
					Run(func(args mock.Arguments) {
						args.Get(1).(*user.User).ID = 42
					}).
					Return(nil)
			},
		},
		{
			name: "email already taken",
			req:  validReq,
			setupMock: func(m *MockRepository) {
				m.On("GetByEmail", ctx, "john@example.com").Return(existingUser(), nil)
			},
			wantErr: user.ErrEmailAlreadyExists,
		},
		{
			name: "unique violation raced past the pre-check",
			req:  validReq,
			setupMock: func(m *MockRepository) {
				m.On("GetByEmail", ctx, "john@example.com").Return(nil, user.ErrUserNotFound)
				m.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(user.ErrEmailAlreadyExists)
			},
			wantErr: user.ErrEmailAlreadyExists,
		},
		{
			name: "store failure during pre-check",
			req:  validReq,
			setupMock: func(m *MockRepository) {
				m.On("GetByEmail", ctx, "john@example.com").Return(nil, errConnReset)
			},
			wantErr: user.ErrStoreUnavailable,
		},
		{
			name: "store failure on insert",
			req:  validReq,
			setupMock: func(m *MockRepository) {
				m.On("GetByEmail", ctx, "john@example.com").Return(nil, user.ErrUserNotFound)
				m.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(errConnReset)
			},
			wantErr: user.ErrStoreUnavailable,
		},
		{
			name:      "invalid input never reaches the store",
			req:       user.CreateRequest{Name: "J", Email: "nope"},
			setupMock: func(m *MockRepository) {},
			wantErr:   user.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMock(repo)

			resp, err := newService(repo).Create(ctx, tt.req)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				assert.Equal(t, &user.Response{ID: 42, Name: "John Doe", Email: "john@example.com"}, resp)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestService_Create_StampsRecord(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("GetByEmail", ctx, "john@example.com").Return(nil, user.ErrUserNotFound)

	var stored *user.User
	repo.On("Create", ctx, mock.AnythingOfType("*user.User")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*user.User)
			stored.ID = 1
		}).
		Return(nil)

	_, err := newService(repo).Create(ctx, user.CreateRequest{Name: "John Doe", Email: "john@example.com", Age: intPtr(30)})
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, 30, stored.Age)
	assert.Equal(t, fixedNow, stored.CreatedAt)
}

func TestService_Create_ErrorCarriesDetails(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByEmail", ctx, "john@example.com").Return(existingUser(), nil)

		_, err := newService(repo).Create(ctx, user.CreateRequest{Name: "John Doe", Email: "john@example.com", Age: intPtr(30)})

		var dupErr *user.EmailAlreadyExistsError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "john@example.com", dupErr.Email)
	})

	t.Run("all violations listed", func(t *testing.T) {
		repo := new(MockRepository)

		_, err := newService(repo).Create(ctx, user.CreateRequest{Name: "", Email: "bad"})

		var valErr *user.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.True(t, valErr.HasField(user.FieldName))
		assert.True(t, valErr.HasField(user.FieldEmail))
		assert.True(t, valErr.HasField(user.FieldAge))
		repo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})

	t.Run("store failure keeps cause", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByEmail", ctx, "john@example.com").Return(nil, errConnReset)

		_, err := newService(repo).Create(ctx, user.CreateRequest{Name: "John Doe", Email: "john@example.com", Age: intPtr(30)})

		var storeErr *user.StoreUnavailableError
		require.ErrorAs(t, err, &storeErr)
		assert.ErrorIs(t, err, errConnReset)
	})
}

func TestService_GetByID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setupMock func(*MockRepository)
		want      *user.Response
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(m *MockRepository) {
				m.On("GetByID", ctx, int64(7)).Return(existingUser(), nil)
			},
			want: &user.Response{ID: 7, Name: "John Doe", Email: "john@example.com"},
		},
		{
			name: "not found",
			setupMock: func(m *MockRepository) {
				m.On("GetByID", ctx, int64(7)).Return(nil, user.ErrUserNotFound)
			},
			wantErr: user.ErrUserNotFound,
		},
		{
			name: "store failure",
			setupMock: func(m *MockRepository) {
				m.On("GetByID", ctx, int64(7)).Return(nil, errConnReset)
			},
			wantErr: user.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMock(repo)

			resp, err := newService(repo).GetByID(ctx, 7)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp)
		})
	}
}

func TestService_GetByID_NotFoundCarriesID(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("GetByID", ctx, int64(99)).Return(nil, user.ErrUserNotFound)

	_, err := newService(repo).GetByID(ctx, 99)

	var nfErr *user.UserNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, int64(99), nfErr.ID)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("projects every record", func(t *testing.T) {
		repo := new(MockRepository)
		second := &user.User{ID: 8, Name: "Jane Roe", Email: "jane@example.com", Age: 25, CreatedAt: fixedNow}
		repo.On("List", ctx).Return([]*user.User{existingUser(), second}, nil)

		got, err := newService(repo).List(ctx)

		require.NoError(t, err)
		assert.Equal(t, []user.Response{
			{ID: 7, Name: "John Doe", Email: "john@example.com"},
			{ID: 8, Name: "Jane Roe", Email: "jane@example.com"},
		}, got)
	})

	t.Run("empty store returns empty slice", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("List", ctx).Return([]*user.User{}, nil)

		got, err := newService(repo).List(ctx)

		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("List", ctx).Return(nil, errConnReset)

		_, err := newService(repo).List(ctx)

		assert.ErrorIs(t, err, user.ErrStoreUnavailable)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("name only leaves everything else unchanged", func(t *testing.T) {
		repo := new(MockRepository)
		before := existingUser()
		repo.On("GetByID", ctx, int64(7)).Return(existingUser(), nil)
		repo.On("Update", ctx, mock.MatchedBy(func(u *user.User) bool {
			return u.ID == before.ID &&
				u.Name == "Jane Doe" &&
				u.Email == before.Email &&
				u.Age == before.Age &&
				u.CreatedAt.Equal(before.CreatedAt)
		})).Return(nil)

		resp, err := newService(repo).Update(ctx, 7, user.UpdateRequest{Name: strPtr("Jane Doe")})

		require.NoError(t, err)
		assert.Equal(t, &user.Response{ID: 7, Name: "Jane Doe", Email: "john@example.com"}, resp)
		repo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("changed email is checked for uniqueness", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, int64(7)).Return(existingUser(), nil)
		repo.On("GetByEmail", ctx, "taken@example.com").Return(&user.User{ID: 8, Email: "taken@example.com"}, nil)

		_, err := newService(repo).Update(ctx, 7, user.UpdateRequest{Email: strPtr("taken@example.com")})

		assert.ErrorIs(t, err, user.ErrEmailAlreadyExists)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("changed email free", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, int64(7)).Return(existingUser(), nil)
		repo.On("GetByEmail", ctx, "new@example.com").Return(nil, user.ErrUserNotFound)
		repo.On("Update", ctx, mock.AnythingOfType("*user.User")).Return(nil)

		resp, err := newService(repo).Update(ctx, 7, user.UpdateRequest{Email: strPtr("new@example.com")})

		require.NoError(t, err)
		assert.Equal(t, "new@example.com", resp.Email)
		repo.AssertExpectations(t)
	})

	t.Run("unique violation from the store", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, int64(7)).Return(existingUser(), nil)
		repo.On("GetByEmail", ctx, "new@example.com").Return(nil, user.ErrUserNotFound)
		repo.On("Update", ctx, mock.AnythingOfType("*user.User")).Return(user.ErrEmailAlreadyExists)

		_, err := newService(repo).Update(ctx, 7, user.UpdateRequest{Email: strPtr("new@example.com")})

		var dupErr *user.EmailAlreadyExistsError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "new@example.com", dupErr.Email)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, int64(7)).Return(nil, user.ErrUserNotFound)

		_, err := newService(repo).Update(ctx, 7, user.UpdateRequest{Name: strPtr("Jane Doe")})

		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("empty request writes nothing", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, int64(7)).Return(existingUser(), nil)

		resp, err := newService(repo).Update(ctx, 7, user.UpdateRequest{})

		require.NoError(t, err)
		assert.Equal(t, &user.Response{ID: 7, Name: "John Doe", Email: "john@example.com"}, resp)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("invalid name rejected before lookup", func(t *testing.T) {
		repo := new(MockRepository)

		_, err := newService(repo).Update(ctx, 7, user.UpdateRequest{Name: strPtr("x")})

		assert.ErrorIs(t, err, user.ErrValidation)
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestService_UpdateField(t *testing.T) {
	ctx := context.Background()

	t.Run("age", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, int64(7)).Return(existingUser(), nil)
		repo.On("Update", ctx, mock.MatchedBy(func(u *user.User) bool {
			return u.Age == 33 && u.Name == "John Doe"
		})).Return(nil)

		_, err := newService(repo).UpdateField(ctx, 7, user.FieldUpdate{Field: "age", Value: "33"})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("non-numeric age", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, int64(7)).Return(existingUser(), nil)

		_, err := newService(repo).UpdateField(ctx, 7, user.FieldUpdate{Field: "age", Value: "thirty"})

		var valErr *user.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.True(t, valErr.HasField(user.FieldAge))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown field is a no-op", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, int64(7)).Return(existingUser(), nil)

		resp, err := newService(repo).UpdateField(ctx, 7, user.FieldUpdate{Field: "nickname", Value: "jd"})

		require.NoError(t, err)
		assert.Equal(t, "John Doe", resp.Name)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("email conflict", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, int64(7)).Return(existingUser(), nil)
		repo.On("GetByEmail", ctx, "taken@example.com").Return(&user.User{ID: 8}, nil)

		_, err := newService(repo).UpdateField(ctx, 7, user.FieldUpdate{Field: "email", Value: "taken@example.com"})

		assert.ErrorIs(t, err, user.ErrEmailAlreadyExists)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", ctx, int64(7)).Return(nil, user.ErrUserNotFound)

		_, err := newService(repo).UpdateField(ctx, 7, user.FieldUpdate{Field: "name", Value: "Jane Doe"})

		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setupMock func(*MockRepository)
		wantErr   error
	}{
		{
			name: "deleted",
			setupMock: func(m *MockRepository) {
				m.On("GetByID", ctx, int64(7)).Return(existingUser(), nil)
				m.On("Delete", ctx, int64(7)).Return(nil)
			},
		},
		{
			name: "not found",
			setupMock: func(m *MockRepository) {
				m.On("GetByID", ctx, int64(7)).Return(nil, user.ErrUserNotFound)
			},
			wantErr: user.ErrUserNotFound,
		},
		{
			name: "removed concurrently",
			setupMock: func(m *MockRepository) {
				m.On("GetByID", ctx, int64(7)).Return(existingUser(), nil)
				m.On("Delete", ctx, int64(7)).Return(user.ErrUserNotFound)
			},
			wantErr: user.ErrUserNotFound,
		},
		{
			name: "store failure",
			setupMock: func(m *MockRepository) {
				m.On("GetByID", ctx, int64(7)).Return(existingUser(), nil)
				m.On("Delete", ctx, int64(7)).Return(errConnReset)
			},
			wantErr: user.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMock(repo)

			err := newService(repo).Delete(ctx, 7)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}
