package contenttypes

import (
	"context"
	"sync"
	"time"

	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

// memStore is an in-memory Store that enforces the api_identifier unique
// index like the database does.
type memStore struct {
	mu     sync.Mutex
	models []schema.ContentModel
	seq    int

	// failCreate forces Create to return this error.
	failCreate error
}

func (s *memStore) Create(_ context.Context, m schema.ContentModel) (schema.ContentModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return schema.ContentModel{}, s.failCreate
	}
	for _, existing := range s.models {
		if existing.APIIdentifier == m.APIIdentifier {
			return schema.ContentModel{}, ErrConflict
		}
	}
	s.seq++
	m.CreatedAt = time.Unix(int64(s.seq), 0)
	m.UpdatedAt = m.CreatedAt
	s.models = append(s.models, m)
	return m, nil
}

func (s *memStore) Update(_ context.Context, m schema.ContentModel) (schema.ContentModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.models {
		if existing.ID != m.ID {
			continue
		}
		for _, other := range s.models {
			if other.ID != m.ID && other.APIIdentifier == m.APIIdentifier {
				return schema.ContentModel{}, ErrConflict
			}
		}
		s.models[i] = m
		return m, nil
	}
	return schema.ContentModel{}, ErrNotFound
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.models {
		if m.ID == id {
			s.models = append(s.models[:i], s.models[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *memStore) List(_ context.Context) ([]schema.ContentModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.ContentModel, 0, len(s.models))
	for i := len(s.models) - 1; i >= 0; i-- {
		out = append(out, s.models[i])
	}
	return out, nil
}

func (s *memStore) GetByID(_ context.Context, id string) (schema.ContentModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.models {
		if m.ID == id {
			return m, nil
		}
	}
	return schema.ContentModel{}, ErrNotFound
}

func (s *memStore) GetByAPIIdentifier(_ context.Context, apiIdentifier string) (schema.ContentModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.models {
		if m.APIIdentifier == apiIdentifier {
			return m, nil
		}
	}
	return schema.ContentModel{}, ErrNotFound
}
