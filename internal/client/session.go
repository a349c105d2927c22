package client

import (
	"context"
	"errors"
	"sync"

	"github.com/and161185/cardvault/internal/convert"
)

// Session tracks the signed-in account of a client and notifies listeners
// when it changes.
type Session struct {
	c     *Client
	store TokenStore

	mu        sync.Mutex
	current   *convert.AccountDTO
	listeners map[int]func(*convert.AccountDTO)
	nextID    int
}

// NewSession binds c to a token store.
func NewSession(c *Client, store TokenStore) *Session {
	return &Session{c: c, store: store, listeners: map[int]func(*convert.AccountDTO){}}
}

// Client returns the underlying API client.
func (s *Session) Client() *Client { return s.c }

// Restore loads a stored token and checks it with the server. A missing,
// expired or revoked token leaves the session signed out with ErrNoToken.
func (s *Session) Restore(ctx context.Context) (convert.AccountDTO, error) {
	tok, err := s.store.Load()
	if err != nil {
		return convert.AccountDTO{}, err
	}
	s.c.SetToken(tok.AccessToken)
	acc, err := s.c.Me(ctx)
	if IsUnauthorized(err) {
		s.c.SetToken("")
		_ = s.store.Clear()
		return convert.AccountDTO{}, ErrNoToken
	}
	if err != nil {
		return convert.AccountDTO{}, err
	}
	s.set(&acc)
	return acc, nil
}

func (s *Session) SignUp(ctx context.Context, req convert.SignUpRequest) (convert.AccountDTO, error) {
	sess, err := s.c.SignUp(ctx, req)
	if err != nil {
		return convert.AccountDTO{}, err
	}
	return s.adopt(sess)
}

func (s *Session) SignIn(ctx context.Context, email, password string) (convert.AccountDTO, error) {
	sess, err := s.c.SignIn(ctx, email, password)
	if err != nil {
		return convert.AccountDTO{}, err
	}
	return s.adopt(sess)
}

// SignOut revokes the token on the server and forgets it locally. The local
// state is cleared even when the server call fails.
func (s *Session) SignOut(ctx context.Context) error {
	err := s.c.SignOut(ctx)
	if IsUnauthorized(err) {
		err = nil
	}
	s.c.SetToken("")
	err = errors.Join(err, s.store.Clear())
	s.set(nil)
	return err
}

// Current returns the signed-in account, if any.
func (s *Session) Current() (convert.AccountDTO, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return convert.AccountDTO{}, false
	}
	return *s.current, true
}

// OnAccountChange registers fn to be called with the new account after every
// sign-in and with nil after sign-out.
func (s *Session) OnAccountChange(fn func(*convert.AccountDTO)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) adopt(sess convert.SessionDTO) (convert.AccountDTO, error) {
	s.c.SetToken(sess.AccessToken)
	if err := s.store.Save(Token{AccessToken: sess.AccessToken, ExpiresAt: sess.ExpiresAt}); err != nil {
		return convert.AccountDTO{}, err
	}
	acc := sess.Account
	s.set(&acc)
	return acc, nil
}

func (s *Session) set(acc *convert.AccountDTO) {
	s.mu.Lock()
	s.current = acc
	fns := make([]func(*convert.AccountDTO), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		var cp *convert.AccountDTO
		if acc != nil {
			v := *acc
			cp = &v
		}
		fn(cp)
	}
}
