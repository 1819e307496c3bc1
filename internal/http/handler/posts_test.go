package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blogd/internal/auth"
	"blogd/internal/ident"
	"blogd/internal/post"

	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ann = auth.User{ID: "6421a55c4c222dd35c81b446", Email: "ann@example.com", Name: "Ann"}
	bob = auth.User{ID: "64283e4635e0dee12bfc5376", Email: "bob@example.com", Name: "Bob"}
)

// fakePostService keeps posts in memory and mirrors the service's ownership
// and sentinel-error contract.
type fakePostService struct {
	owners     map[string]auth.User
	posts      map[string]*post.Post
	lastUpdate *post.UpdateInput
}

func newFakePostService(owners ...auth.User) *fakePostService {
	f := &fakePostService{
		owners: map[string]auth.User{},
		posts:  map[string]*post.Post{},
	}
	for _, u := range owners {
		f.owners[u.ID] = u
	}
	return f
}

func (f *fakePostService) add(p post.Post) *post.Post {
	if p.ID == "" {
		p.ID = ident.New()
	}
	f.posts[p.ID] = &p
	return &p
}

func (f *fakePostService) resolve(p post.Post) post.Post {
	p.Owner = f.owners[p.OwnerID]
	return p
}

func (f *fakePostService) ListPublic(ctx context.Context, now time.Time, tag string) ([]post.Post, error) {
	var out []post.Post
	for _, p := range f.posts {
		if p.PublicAt(now) {
			out = append(out, f.resolve(*p))
		}
	}
	return out, nil
}

func (f *fakePostService) ListDeferred(ctx context.Context, ownerID string, now time.Time) ([]post.Post, error) {
	var out []post.Post
	for _, p := range f.posts {
		if p.OwnerID == ownerID && p.DeferredAt(now) {
			out = append(out, f.resolve(*p))
		}
	}
	return out, nil
}

func (f *fakePostService) Create(ctx context.Context, ownerID string, in post.CreateInput) (*post.Post, error) {
	p := f.add(post.Post{
		Content: in.Content,
		OwnerID: ownerID,
		Pubdate: in.Pubdate,
		Tags:    pq.StringArray(post.ExtractTags(in.Content)),
	})
	resolved := f.resolve(*p)
	return &resolved, nil
}

func (f *fakePostService) Update(ctx context.Context, callerID, postID string, in post.UpdateInput) (*post.Post, error) {
	p, ok := f.posts[postID]
	if !ok {
		return nil, post.ErrNotFound
	}
	if p.OwnerID != callerID {
		return nil, post.ErrNotOwner
	}

	f.lastUpdate = &in
	if in.Content != nil {
		p.Content = *in.Content
		p.Tags = pq.StringArray(post.ExtractTags(*in.Content))
	}
	if in.Filename != nil {
		p.Filename = *in.Filename
	}
	if in.Filelink != nil {
		p.Filelink = *in.Filelink
	}
	if in.Pubdate != nil {
		p.Pubdate = in.Pubdate
	} else if in.ClearPubdate {
		p.Pubdate = nil
	}

	resolved := f.resolve(*p)
	return &resolved, nil
}

func (f *fakePostService) Remove(ctx context.Context, callerID, postID string) error {
	p, ok := f.posts[postID]
	if !ok {
		return post.ErrNotFound
	}
	if p.OwnerID != callerID {
		return post.ErrNotOwner
	}
	delete(f.posts, postID)
	return nil
}

var testJWT = auth.NewJWT("test-secret", time.Hour)

func newPostsRouter(svc PostService) http.Handler {
	r := chi.NewRouter()
	ph := &PostHandler{Svc: svc}

	r.Get("/posts", ph.ListPublic)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(testJWT, WriteError))
		r.Get("/posts/deferred", ph.ListDeferred)
		r.Post("/posts", ph.Create)
		r.Patch("/posts/{postId}", ph.Update)
		r.Delete("/posts/{postId}", ph.Delete)
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, caller *auth.User, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if caller != nil {
		tok, err := testJWT.Sign(caller.ID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUpdateByNonOwnerIsForbidden(t *testing.T) {
	svc := newFakePostService(ann, bob)
	p := svc.add(post.Post{Content: "hi", OwnerID: ann.ID})
	r := newPostsRouter(svc)

	rec := doJSON(t, r, http.MethodPatch, "/posts/"+p.ID, &bob, `{"content":"hijacked"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "hi", svc.posts[p.ID].Content, "post must be left unchanged")
}

func TestRemoveByNonOwnerIsForbidden(t *testing.T) {
	svc := newFakePostService(ann, bob)
	p := svc.add(post.Post{Content: "hi", OwnerID: ann.ID})
	r := newPostsRouter(svc)

	rec := doJSON(t, r, http.MethodDelete, "/posts/"+p.ID, &bob, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, svc.posts, p.ID, "post must still exist")
}

func TestRemoveTwice(t *testing.T) {
	svc := newFakePostService(ann)
	p := svc.add(post.Post{Content: "hi", OwnerID: ann.ID})
	r := newPostsRouter(svc)

	rec := doJSON(t, r, http.MethodDelete, "/posts/"+p.ID, &ann, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "message")

	rec = doJSON(t, r, http.MethodDelete, "/posts/"+p.ID, &ann, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMissingPostIsNotFound(t *testing.T) {
	svc := newFakePostService(ann)
	r := newPostsRouter(svc)

	rec := doJSON(t, r, http.MethodPatch, "/posts/"+ident.New(), &ann, `{"content":"x"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeferredPostsStayPrivate(t *testing.T) {
	svc := newFakePostService(ann, bob)
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)
	deferred := svc.add(post.Post{Content: "tomorrow", OwnerID: ann.ID, Pubdate: &future})
	published := svc.add(post.Post{Content: "yesterday", OwnerID: ann.ID, Pubdate: &past})
	r := newPostsRouter(svc)

	// anonymous public listing excludes the deferred post
	rec := doJSON(t, r, http.MethodGet, "/posts", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), published.ID)
	assert.NotContains(t, rec.Body.String(), deferred.ID)

	// only the owner's deferred listing shows it
	rec = doJSON(t, r, http.MethodGet, "/posts/deferred", &ann, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), deferred.ID)
	assert.NotContains(t, rec.Body.String(), published.ID)

	rec = doJSON(t, r, http.MethodGet, "/posts/deferred", &bob, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), deferred.ID)
}

func TestCreateResolvesOwner(t *testing.T) {
	svc := newFakePostService(ann)
	r := newPostsRouter(svc)

	rec := doJSON(t, r, http.MethodPost, "/posts", &ann, `{"content":"hello #go"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got postDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, ann.ID, got.Owner.ID)
	assert.Equal(t, "ann@example.com", got.Owner.Email)
	assert.Equal(t, []string{"go"}, got.Tags)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestUpdateCannotReassignOwner(t *testing.T) {
	svc := newFakePostService(ann, bob)
	p := svc.add(post.Post{Content: "hi", OwnerID: ann.ID})
	r := newPostsRouter(svc)

	// an owner field in the payload is silently dropped at decode time
	rec := doJSON(t, r, http.MethodPatch, "/posts/"+p.ID, &ann, `{"content":"new","owner":"`+bob.ID+`"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ann.ID, svc.posts[p.ID].OwnerID)
	assert.Equal(t, "new", svc.posts[p.ID].Content)
}

func TestUpdateClearsSchedule(t *testing.T) {
	svc := newFakePostService(ann)
	future := time.Now().Add(24 * time.Hour)
	p := svc.add(post.Post{Content: "scheduled", OwnerID: ann.ID, Pubdate: &future})
	r := newPostsRouter(svc)

	rec := doJSON(t, r, http.MethodPatch, "/posts/"+p.ID, &ann, `{"pubdate":""}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastUpdate)
	assert.True(t, svc.lastUpdate.ClearPubdate)
	assert.Nil(t, svc.lastUpdate.Pubdate)
	assert.Nil(t, svc.posts[p.ID].Pubdate)
}
