package post

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Readout/internal/core/comments"
	"Readout/internal/core/paging"
	"Readout/internal/core/posts"
	"Readout/internal/reddit"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) GetPost(ctx context.Context, id string) (*posts.PostView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posts.PostView), args.Error(1)
}

func (m *mockReader) RefreshPost(ctx context.Context, id string) (*posts.PostView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posts.PostView), args.Error(1)
}

func (m *mockReader) ObservePost(ctx context.Context, id string) (<-chan *posts.PostView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *posts.PostView), args.Error(1)
}

func (m *mockReader) CommentPage(ctx context.Context, postID string, cursor paging.Cursor, limit int, refresh bool) (paging.Page[*comments.CommentView], error) {
	args := m.Called(ctx, postID, cursor, limit, refresh)
	return args.Get(0).(paging.Page[*comments.CommentView]), args.Error(1)
}

func newRouter(reader Reader) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/posts/{id}", NewGetPostHandler(reader).HandleGetPost)
	r.Post("/api/posts/{id}/refresh", NewRefreshPostHandler(reader).HandleRefreshPost)
	r.Get("/api/posts/{id}/comments", NewGetCommentsHandler(reader).HandleGetComments)
	r.Get("/api/posts/{id}/observe", NewObservePostHandler(reader, nil).HandleObservePost)
	return r
}

func serve(h http.Handler, method, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, url, nil))
	return rec
}

func TestHandleGetPost(t *testing.T) {
	reader := &mockReader{}
	reader.On("GetPost", mock.Anything, "t3_a").Return(&posts.PostView{ID: "t3_a", Title: "A", Score: 3}, nil)
	reader.On("GetPost", mock.Anything, "t3_missing").Return(nil, posts.ErrPostNotFound)

	rec := serve(newRouter(reader), http.MethodGet, "/api/posts/t3_a")
	require.Equal(t, http.StatusOK, rec.Code)
	var view posts.PostView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, "A", view.Title)

	rec = serve(newRouter(reader), http.MethodGet, "/api/posts/t3_missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRefreshPost_RemoteFailure(t *testing.T) {
	reader := &mockReader{}
	reader.On("RefreshPost", mock.Anything, "t3_a").Return(nil, reddit.ErrCircuitOpen)

	rec := serve(newRouter(reader), http.MethodPost, "/api/posts/t3_a/refresh")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func threadPage() paging.Page[*comments.CommentView] {
	parent := "t1_a"
	return paging.Page[*comments.CommentView]{
		Items: []*comments.CommentView{
			{ID: "t1_a", PostID: "t3_p", ReplyCount: 1},
			{ID: "t1_a1", PostID: "t3_p", ParentID: &parent, Depth: 1, SortKey: 1},
			{ID: "t1_b", PostID: "t3_p", SortKey: 2},
		},
		NextCursor: paging.EncodeCursor(2, "t1_b"),
	}
}

func TestHandleGetComments_Flat(t *testing.T) {
	reader := &mockReader{}
	reader.On("CommentPage", mock.Anything, "t3_p", paging.Cursor{SortKey: paging.Start}, 50, false).Return(threadPage(), nil)

	rec := serve(newRouter(reader), http.MethodGet, "/api/posts/t3_p/comments?limit=50")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []*comments.CommentView `json:"items"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Items, 3)
	assert.Equal(t, 1, body.Items[1].Depth)
}

func TestHandleGetComments_Nested(t *testing.T) {
	reader := &mockReader{}
	reader.On("CommentPage", mock.Anything, "t3_p", mock.Anything, 0, false).Return(threadPage(), nil)

	rec := serve(newRouter(reader), http.MethodGet, "/api/posts/t3_p/comments?nested=true")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ThreadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Comments, 2)
	require.Len(t, body.Comments[0].Replies, 1)
	assert.Equal(t, "t1_a1", body.Comments[0].Replies[0].Comment.ID)
	assert.NotEmpty(t, body.Cursor)

	rec = serve(newRouter(reader), http.MethodGet, "/api/posts/t3_p/comments?nested=perhaps")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleObservePost(t *testing.T) {
	reader := &mockReader{}
	updates := make(chan *posts.PostView, 2)
	reader.On("ObservePost", mock.Anything, "t3_a").Return((<-chan *posts.PostView)(updates), nil)

	srv := httptest.NewServer(newRouter(reader))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/posts/t3_a/observe"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	updates <- &posts.PostView{ID: "t3_a", Score: 1}
	var view posts.PostView
	require.NoError(t, conn.ReadJSON(&view))
	assert.Equal(t, 1, view.Score)

	updates <- &posts.PostView{ID: "t3_a", Score: 2}
	require.NoError(t, conn.ReadJSON(&view))
	assert.Equal(t, 2, view.Score)

	// Closing the stream closes the socket
	close(updates)
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestHandleObservePost_InvalidID(t *testing.T) {
	rec := serve(newRouter(&mockReader{}), http.MethodGet, "/api/posts/t1_nope/observe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
