package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName         = "config"
	configType         = "toml"
	accountsPathKey    = "accounts.path"
	accountsFileMode   = 0o600
	accountsDirMode    = 0o700
	accountsConfigDir  = ".streamwatch"
	accountsConfigFile = "accounts.toml"
	tempFilePattern    = ".accounts-*.toml.tmp"
)

type Repository struct {
	accountsPath string
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.AccountRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, accountsConfigDir, accountsConfigFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, accountsConfigDir))
	cfg.SetDefault(accountsPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	accountsPath := cfg.GetString(accountsPathKey)
	if accountsPath == "" {
		return nil, errors.New("accounts path is empty")
	}
	accountsPath, err = normalizeAccountsPath(accountsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{accountsPath: accountsPath, mu: lockForPath(accountsPath)}, nil
}

// Save inserts the account or replaces the entry with the same id.
func (r *Repository) Save(ctx context.Context, account domain.Account) error {
	return r.update(ctx, func(file *fileSchema) error {
		encoded := toSchema(account)
		for i := range file.Accounts {
			if file.Accounts[i].ID == encoded.ID {
				file.Accounts[i] = encoded
				return nil
			}
		}
		file.Accounts = append(file.Accounts, encoded)
		return nil
	})
}

// Delete removes the account entry. Unknown ids report domain.ErrAccountNotFound.
func (r *Repository) Delete(ctx context.Context, id domain.AccountID) error {
	return r.update(ctx, func(file *fileSchema) error {
		for i := range file.Accounts {
			if file.Accounts[i].ID == string(id) {
				file.Accounts = append(file.Accounts[:i], file.Accounts[i+1:]...)
				return nil
			}
		}
		return domain.ErrAccountNotFound
	})
}

func (r *Repository) GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	var found domain.Account
	err := r.view(ctx, func(file fileSchema) error {
		for _, entry := range file.Accounts {
			if entry.ID == string(id) {
				found = fromSchema(entry)
				return nil
			}
		}
		return domain.ErrAccountNotFound
	})
	return found, err
}

// List returns every account ordered by id.
func (r *Repository) List(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	err := r.view(ctx, func(file fileSchema) error {
		accounts = make([]domain.Account, 0, len(file.Accounts))
		for _, entry := range file.Accounts {
			accounts = append(accounts, fromSchema(entry))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *Repository) view(ctx context.Context, fn func(fileSchema) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	return fn(file)
}

// update runs fn against the current file and writes the result back. Nothing
// is written when fn fails or ctx is cancelled in between.
func (r *Repository) update(ctx context.Context, fn func(*fileSchema) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	if err := fn(&file); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	file := fileSchema{Version: currentSchemaVersion}

	data, err := os.ReadFile(r.accountsPath)
	if errors.Is(err, os.ErrNotExist) {
		return file, nil
	}
	if err != nil {
		return fileSchema{}, fmt.Errorf("read accounts file: %w", err)
	}

	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode accounts file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()
	return file, nil
}

// writeSchema replaces the accounts file through a synced temp file in the
// same directory so readers never observe a partial document.
func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()
	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode accounts file: %w", err)
	}

	dir := filepath.Dir(r.accountsPath)
	if err := os.MkdirAll(dir, accountsDirMode); err != nil {
		return fmt.Errorf("create accounts directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp accounts file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(accountsFileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp accounts file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp accounts file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp accounts file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp accounts file: %w", err)
	}
	if err := os.Rename(tmpName, r.accountsPath); err != nil {
		return fmt.Errorf("replace accounts file: %w", err)
	}
	committed = true
	return nil
}

func normalizeAccountsPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve accounts path: %w", err)
	}
	return filepath.Clean(absPath), nil
}

// Repositories opened on the same path share one lock.
func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	mu, ok := pathLockMap[path]
	if !ok {
		mu = &sync.RWMutex{}
		pathLockMap[path] = mu
	}
	return mu
}

func toSchema(account domain.Account) accountSchema {
	return accountSchema{
		ID:        string(account.ID),
		UserName:  account.UserName,
		ClientID:  account.ClientID,
		UserAgent: account.UserAgent,
		Secrets: secretsSchema{
			PasswordRef:     account.PasswordRef,
			ClientSecretRef: account.ClientSecretRef,
		},
	}
}

func fromSchema(account accountSchema) domain.Account {
	return domain.Account{
		ID:              domain.AccountID(account.ID),
		UserName:        account.UserName,
		ClientID:        account.ClientID,
		UserAgent:       account.UserAgent,
		PasswordRef:     account.Secrets.PasswordRef,
		ClientSecretRef: account.Secrets.ClientSecretRef,
	}
}
