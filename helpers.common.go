package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
)

type (
	ContextKey        string
	missingFieldError string
)

const (
	BookIDPrefix    string = "bk"
	SessionIDPrefix string = "ss"
	RequestIDPrefix string = "r"

	ContextRequestID     ContextKey = "request.id"
	ContextRequestNumber ContextKey = "request.number"
	ContextSession       ContextKey = "request.session"
)

func (m missingFieldError) Error() string {
	return string(m) + " is required"
}

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val := ctx.Value(contextKey); val != nil {
		return val.(string)
	}
	return ""
}

// GetSessionFromContext returns the session resolved by the auth
// middleware, or false when the request carries none.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	if val := ctx.Value(ContextSession); val != nil {
		return val.(Session), true
	}
	return Session{}, false
}

// SignInRequest is the payload of a signin call.
type SignInRequest struct {
	Email string `json:"email"`
}

// MoveBookRequest is the payload of a move call. From is the shelf the
// caller currently renders the book on; To is the destination.
type MoveBookRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DecodeSignInRequestBody reads the content of a signin request.
func DecodeSignInRequestBody(r *http.Request, req *SignInRequest) error {
	if r.Body == nil {
		return errors.New("invalid signin request body")
	}
	return json.NewDecoder(r.Body).Decode(req)
}

// ValidateSignInRequestBody checks the signin payload carries a plausible email.
func ValidateSignInRequestBody(req *SignInRequest) error {
	if len(strings.TrimSpace(req.Email)) == 0 {
		return missingFieldError("email")
	}
	if !strings.Contains(req.Email, "@") {
		return errors.New("email is not valid")
	}
	return nil
}

// DecodeAddBookRequestBody reads the content of an add-to-collection request.
func DecodeAddBookRequestBody(r *http.Request, item *SearchResultItem) error {
	if r.Body == nil {
		return errors.New("invalid add book request body")
	}
	return json.NewDecoder(r.Body).Decode(item)
}

// ValidateAddBookRequestBody checks the minimum an accepted search item
// must carry: a title. Everything else falls back to catalog sentinels.
func ValidateAddBookRequestBody(item *SearchResultItem) error {
	if len(strings.TrimSpace(item.Title)) == 0 {
		return missingFieldError("title")
	}
	return nil
}

// DecodeMoveBookRequestBody reads the content of a move request.
func DecodeMoveBookRequestBody(r *http.Request, req *MoveBookRequest) error {
	if r.Body == nil {
		return errors.New("invalid move book request body")
	}
	return json.NewDecoder(r.Body).Decode(req)
}

// ValidateMoveBookRequestBody checks both shelves are valid and distinct.
func ValidateMoveBookRequestBody(req *MoveBookRequest) (BookStatus, BookStatus, error) {
	from, err := ParseBookStatus(req.From)
	if err != nil {
		return "", "", err
	}
	to, err := ParseBookStatus(req.To)
	if err != nil {
		return "", "", err
	}
	if from == to {
		return "", "", errors.New("source and target shelves are identical")
	}
	return from, to, nil
}

// GetBearerToken extracts the bearer token of the Authorization header.
func GetBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const scheme = "Bearer "
	if len(auth) > len(scheme) && strings.EqualFold(auth[:len(scheme)], scheme) {
		return strings.TrimSpace(auth[len(scheme):])
	}
	return ""
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result. This
// helps know if the App is running in a docker container or not.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
