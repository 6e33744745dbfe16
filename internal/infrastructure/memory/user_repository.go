package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"user-registry/internal/domain/entity"
	"user-registry/internal/domain/repository"
)

// UserRepository is an in-memory implementation of repository.UserRepository.
// It mirrors the Postgres semantics (unique email, monotonic ids, ordered
// pagination with id tie-break) and is used by tests and local experiments.
type UserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*entity.User
	nextID int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int64]*entity.User), nextID: 1}
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	u.ID = r.nextID
	r.nextID++
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.users {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) List(_ context.Context, q repository.ListQuery) ([]*entity.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		if matches(u, q.Filter) {
			cp := *u
			matched = append(matched, &cp)
		}
	}

	desc := q.Order == repository.OrderDesc
	sort.Slice(matched, func(i, j int) bool {
		c := compareBy(matched[i], matched[j], q.OrderBy)
		if c == 0 {
			return matched[i].ID < matched[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	total := int64(len(matched))
	if q.Offset >= len(matched) {
		return []*entity.User{}, total, nil
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[q.Offset:end], total, nil
}

func matches(u *entity.User, f repository.Filter) bool {
	if f.Name != nil && u.Name != *f.Name {
		return false
	}
	if f.Email != nil && u.Email != *f.Email {
		return false
	}
	if f.Age != nil && (u.Age == nil || *u.Age != *f.Age) {
		return false
	}
	return true
}

func compareBy(a, b *entity.User, field string) int {
	switch field {
	case "id":
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "age":
		av, bv := -1, -1
		if a.Age != nil {
			av = *a.Age
		}
		if b.Age != nil {
			bv = *b.Age
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	default: // name
		return strings.Compare(a.Name, b.Name)
	}
}

var _ repository.UserRepository = (*UserRepository)(nil)
