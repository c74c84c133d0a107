package storefront

import (
	"sync"

	"github.com/utafrali/dressrental/internal/domain"
)

// Session holds the credentials of the signed-in shopper. It is the only
// place tokens live; callers never pass them around.
type Session struct {
	mu     sync.RWMutex
	user   *domain.User
	tokens domain.TokenPair
}

func NewSession() *Session {
	return &Session{}
}

// SignIn stores the user and the token pair issued for them.
func (s *Session) SignIn(user *domain.User, tokens domain.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.tokens = tokens
}

// SignOut forgets the user and the tokens.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.tokens = domain.TokenPair{}
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken != ""
}

// User returns the signed-in user, or nil.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) setUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

func (s *Session) setTokens(tokens domain.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
}

func (s *Session) accessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

func (s *Session) refreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.RefreshToken
}
