package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"blogd/internal/apperr"
	"blogd/internal/auth"
	"blogd/internal/post"
	"blogd/internal/validate"

	"github.com/go-chi/chi/v5"
)

// PostService is the content lifecycle surface the handlers drive.
// Satisfied by *post.Service; tests substitute an in-memory fake.
type PostService interface {
	ListPublic(ctx context.Context, now time.Time, tag string) ([]post.Post, error)
	ListDeferred(ctx context.Context, ownerID string, now time.Time) ([]post.Post, error)
	Create(ctx context.Context, ownerID string, in post.CreateInput) (*post.Post, error)
	Update(ctx context.Context, callerID, postID string, in post.UpdateInput) (*post.Post, error)
	Remove(ctx context.Context, callerID, postID string) error
}

var _ PostService = (*post.Service)(nil)

type PostHandler struct {
	Svc PostService
}

type postDTO struct {
	ID       string     `json:"id"`
	Content  string     `json:"content"`
	Filename string     `json:"filename,omitempty"`
	Filelink string     `json:"filelink,omitempty"`
	Pubdate  *time.Time `json:"pubdate,omitempty"`
	Tags     []string   `json:"tags"`
	Owner    userDTO    `json:"owner"`
}

func toDTO(p *post.Post) postDTO {
	return postDTO{
		ID:       p.ID,
		Content:  p.Content,
		Filename: p.Filename,
		Filelink: p.Filelink,
		Pubdate:  p.Pubdate,
		Tags:     []string(p.Tags),
		Owner:    userDTO{ID: p.Owner.ID, Email: p.Owner.Email, Name: p.Owner.Name},
	}
}

func toDTOs(posts []post.Post) []postDTO {
	out := make([]postDTO, 0, len(posts))
	for i := range posts {
		out = append(out, toDTO(&posts[i]))
	}
	return out
}

type createPostReq struct {
	Content  string  `json:"content"`
	Filename *string `json:"filename"`
	Filelink *string `json:"filelink"`
	Pubdate  *string `json:"pubdate"` // RFC3339 optional
}

// updatePostReq: absent fields are left untouched. An explicit empty
// pubdate ("") clears the schedule, making the post immediately visible.
type updatePostReq struct {
	Content  *string `json:"content"`
	Filename *string `json:"filename"`
	Filelink *string `json:"filelink"`
	Pubdate  *string `json:"pubdate"`
}

func parsePubdate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, apperr.Validation(validate.Fields{"pubdate": "pubdate must be RFC3339"})
	}
	return &t, nil
}

func (h *PostHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	tag := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("tag")))

	posts, err := h.Svc.ListPublic(r.Context(), now, tag)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toDTOs(posts))
}

func (h *PostHandler) ListDeferred(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	now := time.Now()

	posts, err := h.Svc.ListDeferred(r.Context(), uid, now)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toDTOs(posts))
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createPostReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, apperr.BadRequest("malformed request body"))
		return
	}
	req.Content = strings.TrimSpace(req.Content)

	if f := validate.CreatePost(req.Content, req.Filelink); !f.OK() {
		WriteError(w, r, apperr.Validation(f))
		return
	}
	pubdate, err := parsePubdate(req.Pubdate)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	p, err := h.Svc.Create(r.Context(), uid, post.CreateInput{
		Content:  req.Content,
		Filename: req.Filename,
		Filelink: req.Filelink,
		Pubdate:  pubdate,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toDTO(p))
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	postID := chi.URLParam(r, "postId")
	if !validate.ID(postID) {
		WriteError(w, r, apperr.BadRequest("invalid post id"))
		return
	}

	var req updatePostReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, apperr.BadRequest("malformed request body"))
		return
	}

	if f := validate.UpdatePost(req.Content, req.Filelink); !f.OK() {
		WriteError(w, r, apperr.Validation(f))
		return
	}

	in := post.UpdateInput{
		Content:  req.Content,
		Filename: req.Filename,
		Filelink: req.Filelink,
	}
	if req.Pubdate != nil && strings.TrimSpace(*req.Pubdate) == "" {
		in.ClearPubdate = true
	} else {
		pubdate, err := parsePubdate(req.Pubdate)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		in.Pubdate = pubdate
	}

	p, err := h.Svc.Update(r.Context(), uid, postID, in)
	if err != nil {
		WriteError(w, r, mapPostErr(err))
		return
	}

	WriteJSON(w, http.StatusOK, toDTO(p))
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	postID := chi.URLParam(r, "postId")
	if !validate.ID(postID) {
		WriteError(w, r, apperr.BadRequest("invalid post id"))
		return
	}

	if err := h.Svc.Remove(r.Context(), uid, postID); err != nil {
		WriteError(w, r, mapPostErr(err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"message": "post deleted"})
}

func mapPostErr(err error) error {
	switch {
	case errors.Is(err, post.ErrNotFound):
		return apperr.NotFound("post not found")
	case errors.Is(err, post.ErrNotOwner):
		return apperr.Forbidden("you are not the author of this post")
	default:
		return err
	}
}
