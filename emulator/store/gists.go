package store

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// GistFile is one stored file.
type GistFile struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Gist is a stored gist.
type Gist struct {
	ID          string              `json:"id"`
	Owner       string              `json:"owner"`
	Description string              `json:"description"`
	Files       map[string]GistFile `json:"files"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// CreateGist stores a new gist. An empty id is replaced by a random one.
func (s *Store) CreateGist(id, owner, description string, files map[string]string) (*Gist, error) {
	if id == "" {
		generated, err := randomHex(16)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ID: %w", err)
		}
		id = generated
	}

	now := time.Now().UTC()
	g := &Gist{
		ID:          id,
		Owner:       owner,
		Description: description,
		Files:       make(map[string]GistFile, len(files)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for name, content := range files {
		g.Files[name] = GistFile{Filename: name, Content: content}
	}

	if err := s.Put(BucketGists, id, g); err != nil {
		return nil, fmt.Errorf("failed to save gist: %w", err)
	}
	return g, nil
}

// GetGist retrieves a gist by ID.
func (s *Store) GetGist(id string) (*Gist, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	var g Gist
	if err := s.Get(BucketGists, id, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateGist merges file changes into a gist: a non-nil content overwrites
// or creates the file, a nil content deletes it. Files not mentioned are kept.
func (s *Store) UpdateGist(id string, files map[string]*string) (*Gist, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	return update(s, BucketGists, id, func(g *Gist) error {
		if g.Files == nil {
			g.Files = make(map[string]GistFile)
		}
		for name, content := range files {
			if content == nil {
				delete(g.Files, name)
				continue
			}
			g.Files[name] = GistFile{Filename: name, Content: *content}
		}
		g.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// DeleteGist deletes a gist by ID.
func (s *Store) DeleteGist(id string) error {
	if _, err := s.GetGist(id); err != nil {
		return err
	}
	return s.Delete(BucketGists, id)
}

// PutToken registers an access token for a login.
func (s *Store) PutToken(token, login string) error {
	return s.Put(BucketTokens, token, login)
}

// LookupToken returns the login owning token.
func (s *Store) LookupToken(token string) (string, error) {
	var login string
	if err := s.Get(BucketTokens, token, &login); err != nil {
		return "", err
	}
	return login, nil
}

// RevokeToken removes an access token.
func (s *Store) RevokeToken(token string) error {
	return s.Delete(BucketTokens, token)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
