package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"Readout/internal/core/users"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) EnsureUser(ctx context.Context, name string) (*users.UserView, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.UserView), args.Error(1)
}

func get(reader Reader, name string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/api/users/{name}", NewGetUserHandler(reader).HandleGetUser)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/"+name, nil))
	return rec
}

func TestHandleGetUser(t *testing.T) {
	reader := &mockReader{}
	reader.On("EnsureUser", mock.Anything, "alice").
		Return(&users.UserView{Name: "alice", IconURL: "https://i.example/a.png"}, nil)

	rec := get(reader, "alice")
	require.Equal(t, http.StatusOK, rec.Code)

	var view users.UserView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, "https://i.example/a.png", view.IconURL)
	assert.False(t, view.Pending)
}

func TestHandleGetUser_Errors(t *testing.T) {
	reader := &mockReader{}
	reader.On("EnsureUser", mock.Anything, "flaky").Return(nil, users.ErrProfileUnavailable)

	assert.Equal(t, http.StatusServiceUnavailable, get(reader, "flaky").Code)
	assert.Equal(t, http.StatusBadRequest, get(reader, "not%20valid").Code)
	reader.AssertNumberOfCalls(t, "EnsureUser", 1)
}
