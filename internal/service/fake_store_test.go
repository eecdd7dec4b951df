package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"loginreg/internal/model"
	"loginreg/internal/repository"
)

// memStore is an in-memory UserStore and UserCounter.
type memStore struct {
	mu        sync.Mutex
	users     []model.User
	insertErr error
	findErr   error
	inserts   int
}

func (m *memStore) Insert(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserts++
	now := time.Now()
	user.ID = uint(len(m.users) + 1)
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users = append(m.users, *user)
	return nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (repository.UserLookup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return repository.NotFound, m.findErr
	}
	for i := range m.users {
		if m.users[i].Email == email {
			u := m.users[i]
			return repository.Found(&u), nil
		}
	}
	return repository.NotFound, nil
}

func (m *memStore) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *memStore) CountCreatedSince(_ context.Context, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if !u.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

var errStorage = errors.New("storage unavailable")

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
