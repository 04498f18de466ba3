// Package flash carries one-shot user messages across a redirect in a
// signed cookie.
package flash

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "flash"

	CategorySuccess = "success"
	CategoryError   = "error"
)

// Message is a single flashed notice.
type Message struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

type claims struct {
	Messages []Message `json:"messages"`
	jwt.RegisteredClaims
}

// Store signs flash cookies with an HMAC secret.
type Store struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a Store. Messages not read within ten minutes expire.
func NewStore(secret string) *Store {
	return &Store{
		secret: []byte(secret),
		ttl:    10 * time.Minute,
		now:    time.Now,
	}
}

// Add appends a message to whatever is already pending on r and writes
// the combined cookie to w.
func (s *Store) Add(w http.ResponseWriter, r *http.Request, category, text string) error {
	pending := s.peek(r)
	pending = append(pending, Message{Category: category, Text: text})

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Messages: pending,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("failed to sign flash cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
	return nil
}

// Pop returns pending messages and clears the cookie. A missing, expired or
// forged cookie yields no messages.
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Message {
	if _, err := r.Cookie(CookieName); errors.Is(err, http.ErrNoCookie) {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	return s.peek(r)
}

func (s *Store) peek(r *http.Request) []Message {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil
	}

	var parsed claims
	_, err = jwt.ParseWithClaims(c.Value, &parsed, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil
	}
	return parsed.Messages
}
