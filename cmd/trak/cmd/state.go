package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
)

// stateStore keeps the cookie jar between invocations.
type stateStore struct {
	dir string
}

func (s *stateStore) cookiePath() string {
	return filepath.Join(s.dir, "cookies.json")
}

func (s *stateStore) loadCookies() ([]*http.Cookie, error) {
	data, err := os.ReadFile(s.cookiePath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cookies []*http.Cookie
	err = json.Unmarshal(data, &cookies)
	if err != nil {
		// A corrupt jar only costs a login
		return nil, nil
	}
	return cookies, nil
}

func (s *stateStore) saveCookies(cookies []*http.Cookie) error {
	err := os.MkdirAll(s.dir, 0o700)
	if err != nil {
		return err
	}

	if len(cookies) == 0 {
		err = os.Remove(s.cookiePath())
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	data, err := json.Marshal(cookies)
	if err != nil {
		return err
	}
	return os.WriteFile(s.cookiePath(), data, 0o600)
}

type stateKey struct{}

func withState(ctx context.Context, s *stateStore) context.Context {
	return context.WithValue(ctx, stateKey{}, s)
}

func stateFrom(ctx context.Context) *stateStore {
	s, _ := ctx.Value(stateKey{}).(*stateStore)
	return s
}
