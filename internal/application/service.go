package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

var (
	ErrIncompleteAccount = errors.New("account is missing credentials")
	ErrInvalidToken      = errors.New("token exchange returned an unusable token")
)

type AccountService struct {
	repo  ports.AccountRepository
	store ports.SecretStore
	auth  ports.Authenticator
	clock ports.Clock
}

func NewAccountService(repo ports.AccountRepository, store ports.SecretStore, auth ports.Authenticator, clock ports.Clock) *AccountService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &AccountService{
		repo:  repo,
		store: store,
		auth:  auth,
		clock: clock,
	}
}

type writtenSecret struct {
	key      string
	previous string
	existed  bool
}

func (s *AccountService) SetAccount(ctx context.Context, cmd SetAccountCommand) error {
	if strings.TrimSpace(string(cmd.ID)) == "" {
		return errors.New("account id is required")
	}

	account, err := s.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return fmt.Errorf("get account by id: %w", err)
		}
		account = domain.Account{ID: cmd.ID}
	}
	previousRefs := account.SecretRefs()

	if cmd.UserName != "" {
		account.UserName = cmd.UserName
	}
	if cmd.ClientID != "" {
		account.ClientID = cmd.ClientID
	}
	if cmd.UserAgent != "" {
		account.UserAgent = cmd.UserAgent
	}

	secrets := []struct {
		key   string
		value string
		ref   *string
	}{
		{key: domain.PasswordSecretKey(cmd.ID), value: cmd.Password, ref: &account.PasswordRef},
		{key: domain.ClientSecretKey(cmd.ID), value: cmd.ClientSecret, ref: &account.ClientSecretRef},
	}

	written := make([]writtenSecret, 0, len(secrets))
	for _, secret := range secrets {
		if secret.value == "" {
			continue
		}
		entry, err := s.snapshot(ctx, secret.key)
		if err != nil {
			return s.rollback(ctx, written, err)
		}
		if err := s.store.Put(ctx, secret.key, secret.value); err != nil {
			return s.rollback(ctx, written, fmt.Errorf("store account secret: %w", err))
		}
		written = append(written, entry)
		*secret.ref = secret.key
	}

	if !account.Complete() {
		return s.rollback(ctx, written, fmt.Errorf("account %s: %w", account.ID, ErrIncompleteAccount))
	}

	if err := s.repo.Save(ctx, account); err != nil {
		return s.rollback(ctx, written, fmt.Errorf("save account: %w", err))
	}

	current := account.SecretRefs()
	for _, ref := range previousRefs {
		if containsRef(current, ref) {
			continue
		}
		if err := s.store.Delete(ctx, ref); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
			return fmt.Errorf("delete previous account secret: %w", err)
		}
	}

	return nil
}

func (s *AccountService) snapshot(ctx context.Context, key string) (writtenSecret, error) {
	previous, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return writtenSecret{key: key}, nil
		}
		return writtenSecret{}, fmt.Errorf("read current account secret: %w", err)
	}
	return writtenSecret{key: key, previous: previous, existed: true}, nil
}

// rollback restores overwritten secrets and removes new ones, newest first.
func (s *AccountService) rollback(ctx context.Context, written []writtenSecret, cause error) error {
	var rollbackErr error
	for i := len(written) - 1; i >= 0; i-- {
		entry := written[i]
		var err error
		if entry.existed {
			err = s.store.Put(ctx, entry.key, entry.previous)
		} else {
			err = s.store.Delete(ctx, entry.key)
		}
		if err != nil {
			rollbackErr = errors.Join(rollbackErr, err)
		}
	}
	if rollbackErr != nil {
		return fmt.Errorf("rollback stored secrets: %w", errors.Join(cause, rollbackErr))
	}
	return cause
}

func containsRef(refs []string, target string) bool {
	for _, ref := range refs {
		if ref == target {
			return true
		}
	}
	return false
}

// Remove deletes the profile first, then its secrets. A secret that is already
// gone is not an error.
func (s *AccountService) Remove(ctx context.Context, id domain.AccountID) error {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get account by id: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	var errs error
	for _, ref := range account.SecretRefs() {
		if err := s.store.Delete(ctx, ref); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
			errs = errors.Join(errs, fmt.Errorf("delete account secret %s: %w", ref, err))
		}
	}
	return errs
}

func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Credentials resolves the account's secrets for the token exchange.
func (s *AccountService) Credentials(ctx context.Context, id domain.AccountID) (domain.Credentials, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("get account by id: %w", err)
	}
	if !account.Complete() {
		return domain.Credentials{}, fmt.Errorf("account %s: %w", id, ErrIncompleteAccount)
	}

	password, err := s.store.Get(ctx, account.PasswordRef)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("read account password: %w", err)
	}
	clientSecret, err := s.store.Get(ctx, account.ClientSecretRef)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("read account client secret: %w", err)
	}

	userAgent := account.UserAgent
	if userAgent == "" {
		userAgent = fmt.Sprintf("streamwatch (by u/%s)", account.UserName)
	}

	return domain.Credentials{
		UserName:     account.UserName,
		Password:     password,
		ClientID:     account.ClientID,
		ClientSecret: clientSecret,
		UserAgent:    userAgent,
	}, nil
}

// Verify performs a token exchange with the stored credentials.
func (s *AccountService) Verify(ctx context.Context, id domain.AccountID) (domain.Token, error) {
	creds, err := s.Credentials(ctx, id)
	if err != nil {
		return domain.Token{}, err
	}

	token, err := s.auth.Authenticate(ctx, creds)
	if err != nil {
		return domain.Token{}, fmt.Errorf("authenticate %s: %w", creds.UserName, err)
	}
	if !token.Valid(s.clock.Now()) {
		return domain.Token{}, ErrInvalidToken
	}
	return token, nil
}
