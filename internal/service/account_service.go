package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"loginreg/internal/model"
	"loginreg/internal/repository"
)

// UserStore is the storage the account service needs.
type UserStore interface {
	Insert(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (repository.UserLookup, error)
}

// Result is the outcome of a registration or login attempt.
// On success User is set; otherwise Errors holds messages for the form.
type Result struct {
	Success bool
	Errors  []string
	User    *model.User
}

func succeeded(user *model.User) Result {
	return Result{Success: true, User: user}
}

func failed(errs ...string) Result {
	return Result{Success: false, Errors: errs}
}

// AccountService validates registration and login forms.
type AccountService struct {
	store  UserStore
	hasher PasswordHasher
	log    logrus.FieldLogger
}

func NewAccountService(store UserStore, hasher PasswordHasher, log logrus.FieldLogger) *AccountService {
	return &AccountService{store: store, hasher: hasher, log: log}
}

// Register validates the form and, when it is clean, stores a new user.
// The returned error is non-nil only for hashing or storage failures.
func (s *AccountService) Register(ctx context.Context, form Form) (Result, error) {
	if errs := ValidateRegistration(form); len(errs) > 0 {
		return failed(errs...), nil
	}

	hash, err := s.hasher.Hash(form.Get(FieldPassword))
	if err != nil {
		return Result{}, err
	}

	user := &model.User{
		FirstName:    form.Get(FieldFirstName),
		LastName:     form.Get(FieldLastName),
		Email:        form.Get(FieldEmail),
		PasswordHash: hash,
	}
	if err := s.store.Insert(ctx, user); err != nil {
		return Result{}, err
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return succeeded(user), nil
}

// Login checks the submitted email and password. An unknown email and a
// wrong password produce the same failure.
func (s *AccountService) Login(ctx context.Context, form Form) (Result, error) {
	lookup, err := s.store.FindByEmail(ctx, form.Get(FieldEmail))
	if err != nil {
		return Result{}, err
	}

	if !lookup.Found() {
		return failed(MsgBadCredentials), nil
	}

	if !s.hasher.Compare(lookup.User.PasswordHash, form.Get(FieldPassword)) {
		s.log.WithField("user_id", lookup.User.ID).Debug("password mismatch")
		return failed(MsgBadCredentials), nil
	}

	s.log.WithField("user_id", lookup.User.ID).Info("user logged in")
	return succeeded(lookup.User), nil
}
