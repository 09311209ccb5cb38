// SPDX-License-Identifier: AGPL-3.0-only
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store holds the whole account document in memory and rewrites the backing
// file on every mutation. Writes go through a temp file and rename so a
// crash mid-write never leaves a torn document; the mutex serializes
// concurrent mutations at file granularity (last writer wins).
type Store struct {
	path string
	mu   sync.Mutex
	doc  *document
}

func Open(path string) (*Store, error) {
	s := &Store{path: path, doc: newDocument()}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, s.doc); err != nil {
		return nil, fmt.Errorf("failed to parse store file %s: %w", path, err)
	}
	if s.doc.Accounts == nil {
		s.doc.Accounts = make(map[string][]*Account)
	}
	return s, nil
}

func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) Path() string {
	return s.path
}

// GetAccount returns a deep copy of the account, or nil if unknown.
func (s *Store) GetAccount(platform string, id uuid.UUID) *Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.doc.Accounts[platform] {
		if a.ID == id {
			return a.Clone()
		}
	}
	return nil
}

// AllAccounts returns deep copies of every account, grouped by platform
// name in lexical order so the fetch-all driver is deterministic.
func (s *Store) AllAccounts() []*Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	platforms := make([]string, 0, len(s.doc.Accounts))
	for p := range s.doc.Accounts {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	var out []*Account
	for _, p := range platforms {
		for _, a := range s.doc.Accounts[p] {
			out = append(out, a.Clone())
		}
	}
	return out
}

func (s *Store) Accounts(platform string) []*Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Account, 0, len(s.doc.Accounts[platform]))
	for _, a := range s.doc.Accounts[platform] {
		out = append(out, a.Clone())
	}
	return out
}

func (s *Store) CreateAccount(platform, handle, url, cookie string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.doc.Accounts[platform] {
		if a.Handle == handle {
			return nil, fmt.Errorf("account %s already tracked on %s", handle, platform)
		}
	}

	acct := &Account{
		ID:            uuid.New(),
		Platform:      platform,
		Handle:        handle,
		URL:           url,
		Cookie:        cookie,
		RecentContent: []ContentItem{},
	}
	s.doc.Accounts[platform] = append(s.doc.Accounts[platform], acct)

	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return acct.Clone(), nil
}

func (s *Store) DeleteAccount(platform string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.doc.Accounts[platform]
	for i, a := range list {
		if a.ID == id {
			s.doc.Accounts[platform] = append(list[:i], list[i+1:]...)
			return s.persistLocked()
		}
	}
	return fmt.Errorf("account %s not found on %s", id, platform)
}

func (s *Store) SetCookie(platform string, id uuid.UUID, cookie string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.doc.Accounts[platform] {
		if a.ID == id {
			a.Cookie = cookie
			return s.persistLocked()
		}
	}
	return fmt.Errorf("account %s not found on %s", id, platform)
}

// ReplaceAccount swaps the stored record for the cycle's working copy and
// persists the whole document. This is the per-batch durability point: a
// crash mid-cycle leaves state reflecting the last completed batch.
func (s *Store) ReplaceAccount(acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.doc.Accounts[acct.Platform]
	for i, a := range list {
		if a.ID == acct.ID {
			list[i] = acct.Clone()
			return s.persistLocked()
		}
	}
	return fmt.Errorf("account %s not found on %s", acct.ID, acct.Platform)
}

func (s *Store) Folders() []Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Folder(nil), s.doc.Folders...)
}

func (s *Store) CreateFolder(name string) (Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := Folder{ID: uuid.New(), Name: name}
	s.doc.Folders = append(s.doc.Folders, f)
	if err := s.persistLocked(); err != nil {
		return Folder{}, err
	}
	return f, nil
}

func (s *Store) DeleteFolder(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.doc.Folders {
		if f.ID == id {
			s.doc.Folders = append(s.doc.Folders[:i], s.doc.Folders[i+1:]...)
			for _, list := range s.doc.Accounts {
				for _, a := range list {
					if a.FolderID == id.String() {
						a.FolderID = ""
					}
				}
			}
			return s.persistLocked()
		}
	}
	return fmt.Errorf("folder %s not found", id)
}

func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Settings
}

func (s *Store) SetSettings(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Settings = settings
	return s.persistLocked()
}
