// Package validate holds the pure syntactic checks run at the request
// boundary, before any store access. Each composite check returns a Fields
// map enumerating every violated field; an empty map means the input passed.
package validate

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	idRe    = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

type Fields map[string]string

func (f Fields) OK() bool { return len(f) == 0 }

// ID reports whether s is a well-formed 24-hex record identifier.
func ID(s string) bool { return idRe.MatchString(s) }

// Email reports the failure reason for s, or "" if it is a valid address.
func Email(s string) string {
	if s == "" {
		return "email is required"
	}
	if !emailRe.MatchString(s) {
		return "invalid email address"
	}
	return ""
}

func Password(s string) string {
	if s == "" {
		return "password is required"
	}
	if n := utf8.RuneCountInString(s); n < 6 || n > 30 {
		return "password must be 6-30 characters"
	}
	return ""
}

func Name(s string) string {
	if s == "" {
		return "name is required"
	}
	if n := utf8.RuneCountInString(s); n < 2 || n > 30 {
		return "name must be 2-30 characters"
	}
	return ""
}

// URL reports whether s parses as an absolute URL.
func URL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func SignUp(email, password, name string) Fields {
	f := Fields{}
	if msg := Email(email); msg != "" {
		f["email"] = msg
	}
	if msg := Password(password); msg != "" {
		f["password"] = msg
	}
	if msg := Name(name); msg != "" {
		f["name"] = msg
	}
	return f
}

func SignIn(email, password string) Fields {
	f := Fields{}
	if msg := Email(email); msg != "" {
		f["email"] = msg
	}
	if msg := Password(password); msg != "" {
		f["password"] = msg
	}
	return f
}

// CreatePost checks a full post payload. Content is required; filelink is
// optional but must be an absolute URL when present.
func CreatePost(content string, filelink *string) Fields {
	f := Fields{}
	if strings.TrimSpace(content) == "" {
		f["content"] = "content is required"
	}
	if filelink != nil && !URL(*filelink) {
		f["filelink"] = "filelink must be a valid URL"
	}
	return f
}

// UpdatePost checks a partial post payload: every field optional, supplied
// values must still pass the create-time rules.
func UpdatePost(content, filelink *string) Fields {
	f := Fields{}
	if content != nil && strings.TrimSpace(*content) == "" {
		f["content"] = "content must not be empty"
	}
	if filelink != nil && !URL(*filelink) {
		f["filelink"] = "filelink must be a valid URL"
	}
	return f
}
