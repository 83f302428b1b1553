package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/db"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
)

// memoryStore keeps the serialized document and counts calls.
type memoryStore struct {
	mu       sync.Mutex
	content  []byte
	fetches  int
	replaces int
	fetchErr error
	writeErr error
}

func newMemoryStore(content string) *memoryStore {
	return &memoryStore{content: []byte(content)}
}

func (s *memoryStore) Fetch(ctx context.Context) (ledger.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return ledger.ParseDocument(s.content)
}

func (s *memoryStore) Replace(ctx context.Context, doc ledger.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replaces++
	if s.writeErr != nil {
		return s.writeErr
	}
	content, err := doc.Marshal()
	if err != nil {
		return err
	}
	s.content = content
	return nil
}

func (s *memoryStore) bytes() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.content)
}

type recorderFunc func(ctx context.Context, e db.Entry) error

func (f recorderFunc) Record(ctx context.Context, e db.Entry) error {
	return f(ctx, e)
}

var errUnavailable = errors.New("connection reset by peer")

// canonical re-encodes a document so tests can compare bytes.
func canonical(content string) string {
	doc, err := ledger.ParseDocument([]byte(content))
	if err != nil {
		panic(err)
	}
	out, err := doc.Marshal()
	if err != nil {
		panic(err)
	}
	return string(out)
}
