package jsonfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
	"github.com/tidwall/jsonc"
)

const (
	UsersDocument       = "users.json"
	ThreadsDocument     = "monitored_threads.json"
	DiscussionsDocument = "monitored_discussions.json"
	CommandsDocument    = "commands.json"

	documentDirMode  = 0o700
	documentFileMode = 0o600
	lockDirName      = ".locks"
	lockRetryWait    = 25 * time.Millisecond
)

var (
	ErrLockUnavailable = errors.New("jsonfs: lock unavailable")
	ErrLockTimeout     = errors.New("jsonfs: lock timeout")
)

// Store keeps the bot state as four JSON documents in one directory. Reads
// accept comments and trailing commas so the files can be edited by hand.
// Every read and write holds an exclusive lock on the document.
type Store struct {
	dir string
}

var _ ports.StateStore = (*Store)(nil)

func NewStore(dir string) *Store {
	return &Store{dir: filepath.Clean(dir)}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) LoadUsers(ctx context.Context) (domain.Users, error) {
	var doc usersDocument
	if err := s.read(ctx, UsersDocument, &doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (s *Store) SaveUsers(ctx context.Context, users domain.Users) error {
	return s.write(ctx, UsersDocument, usersFromDomain(users))
}

func (s *Store) LoadThreads(ctx context.Context) (domain.MonitoredThreads, error) {
	var doc threadsDocument
	if err := s.read(ctx, ThreadsDocument, &doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (s *Store) SaveThreads(ctx context.Context, threads domain.MonitoredThreads) error {
	return s.write(ctx, ThreadsDocument, threadsFromDomain(threads))
}

func (s *Store) LoadDiscussions(ctx context.Context) (*domain.Discussions, error) {
	var doc discussionsDocument
	if err := s.read(ctx, DiscussionsDocument, &doc); err != nil {
		return nil, err
	}
	discussions := doc.toDomain()
	if err := discussions.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", DiscussionsDocument, err)
	}
	return discussions, nil
}

func (s *Store) SaveDiscussions(ctx context.Context, discussions *domain.Discussions) error {
	return s.write(ctx, DiscussionsDocument, discussionsFromDomain(discussions))
}

func (s *Store) LoadCommands(ctx context.Context) (domain.CommandTable, error) {
	var doc commandsDocument
	if err := s.read(ctx, CommandsDocument, &doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// Init writes empty defaults for every missing document and returns the
// names it created. Existing documents are left untouched.
func (s *Store) Init(ctx context.Context) ([]string, error) {
	defaults := []struct {
		name  string
		value any
	}{
		{name: UsersDocument, value: defaultUsers()},
		{name: ThreadsDocument, value: threadsDocument{}},
		{name: DiscussionsDocument, value: discussionsFromDomain(nil)},
		{name: CommandsDocument, value: commandsDocument{}},
	}

	var created []string
	for _, doc := range defaults {
		path := filepath.Join(s.dir, doc.name)
		err := s.withLock(ctx, doc.name, func() error {
			if _, err := os.Stat(path); err == nil {
				return nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			created = append(created, doc.name)
			return writeJSONAtomic(path, doc.value)
		})
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

func (s *Store) read(ctx context.Context, name string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)
	return s.withLock(ctx, name, func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%s: %w", path, domain.ErrStoreDocumentMissing)
			}
			return fmt.Errorf("read %s: %w", path, err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return fmt.Errorf("%s is empty: %w", path, domain.ErrStoreDocumentMissing)
		}
		if err := json.Unmarshal(jsonc.ToJSON(data), out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	})
}

func (s *Store) write(ctx context.Context, name string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)
	return s.withLock(ctx, name, func() error {
		return writeJSONAtomic(path, value)
	})
}

func (s *Store) withLock(ctx context.Context, name string, fn func() error) error {
	lockDir := filepath.Join(s.dir, lockDirName)
	if err := os.MkdirAll(lockDir, documentDirMode); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrLockUnavailable, lockDir, err)
	}
	return withLockFile(ctx, filepath.Join(lockDir, name+".lck"), fn)
}

func writeJSONAtomic(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, documentDirMode); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp for %s: %w", path, err)
	}
	if err := tmp.Chmod(documentFileMode); err != nil {
		return fmt.Errorf("chmod temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func waitForLockRetry(ctx context.Context, lockPath string) error {
	timer := time.NewTimer(lockRetryWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", ErrLockTimeout, lockPath, ctx.Err())
	case <-timer.C:
		return nil
	}
}
