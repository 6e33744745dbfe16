package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"user-registry/internal/domain/entity"
	"user-registry/internal/domain/repository"
)

func intPtr(v int) *int { return &v }

func TestUserRepository_CreateAssignsMonotonicIDs(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r := NewUserRepository()

	for i := 1; i <= 3; i++ {
		u := &entity.User{Name: fmt.Sprintf("u%d", i), Email: fmt.Sprintf("u%d@x.com", i)}
		req.NoError(r.Create(ctx, u))
		req.Equal(int64(i), u.ID)
	}

	// Ids are never reused after deletion.
	req.NoError(r.Delete(ctx, 3))
	u := &entity.User{Name: "u4", Email: "u4@x.com"}
	req.NoError(r.Create(ctx, u))
	req.Equal(int64(4), u.ID)
}

func TestUserRepository_UniqueEmail(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r := NewUserRepository()

	req.NoError(r.Create(ctx, &entity.User{Name: "A", Email: "a@x.com"}))
	err := r.Create(ctx, &entity.User{Name: "B", Email: "a@x.com"})
	req.ErrorIs(err, repository.ErrDuplicateEmail)

	req.NoError(r.Create(ctx, &entity.User{Name: "B", Email: "b@x.com"}))
	err = r.Update(ctx, &entity.User{ID: 2, Name: "B", Email: "a@x.com"})
	req.ErrorIs(err, repository.ErrDuplicateEmail)
}

func TestUserRepository_NotFound(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r := NewUserRepository()

	_, err := r.GetByID(ctx, 7)
	req.ErrorIs(err, repository.ErrNotFound)
	_, err = r.GetByEmail(ctx, "nobody@x.com")
	req.ErrorIs(err, repository.ErrNotFound)
	req.ErrorIs(r.Update(ctx, &entity.User{ID: 7}), repository.ErrNotFound)
	req.ErrorIs(r.Delete(ctx, 7), repository.ErrNotFound)
}

func TestUserRepository_ListOrderingAndPagination(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r := NewUserRepository()

	// Two share a name to exercise the id tie-break.
	req.NoError(r.Create(ctx, &entity.User{Name: "carol", Email: "c@x.com", Age: intPtr(40)}))
	req.NoError(r.Create(ctx, &entity.User{Name: "alice", Email: "a1@x.com", Age: intPtr(30)}))
	req.NoError(r.Create(ctx, &entity.User{Name: "alice", Email: "a2@x.com", Age: intPtr(20)}))
	req.NoError(r.Create(ctx, &entity.User{Name: "bob", Email: "b@x.com"}))

	page, total, err := r.List(ctx, repository.ListQuery{Limit: 10, OrderBy: "name", Order: repository.OrderAsc})
	req.NoError(err)
	req.Equal(int64(4), total)
	req.Len(page, 4)
	req.Equal("a1@x.com", page[0].Email) // alice id=2 before alice id=3
	req.Equal("a2@x.com", page[1].Email)
	req.Equal("bob", page[2].Name)
	req.Equal("carol", page[3].Name)

	page, _, err = r.List(ctx, repository.ListQuery{Limit: 10, OrderBy: "name", Order: repository.OrderDesc})
	req.NoError(err)
	req.Equal("carol", page[0].Name)

	// Page boundaries: total reflects the filter, not the page.
	page, total, err = r.List(ctx, repository.ListQuery{Limit: 2, Offset: 2, OrderBy: "name"})
	req.NoError(err)
	req.Equal(int64(4), total)
	req.Len(page, 2)

	page, total, err = r.List(ctx, repository.ListQuery{Limit: 2, Offset: 10, OrderBy: "name"})
	req.NoError(err)
	req.Equal(int64(4), total)
	req.Empty(page)
}

func TestUserRepository_ListFilter(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r := NewUserRepository()

	req.NoError(r.Create(ctx, &entity.User{Name: "alice", Email: "a@x.com", Age: intPtr(18)}))
	req.NoError(r.Create(ctx, &entity.User{Name: "bob", Email: "b@x.com", Age: intPtr(18)}))
	req.NoError(r.Create(ctx, &entity.User{Name: "carol", Email: "c@x.com"}))

	page, total, err := r.List(ctx, repository.ListQuery{
		Limit:  10,
		Filter: repository.Filter{Age: intPtr(18)},
	})
	req.NoError(err)
	req.Equal(int64(2), total)
	req.Len(page, 2)

	name := "carol"
	page, total, err = r.List(ctx, repository.ListQuery{
		Limit:  10,
		Filter: repository.Filter{Name: &name},
	})
	req.NoError(err)
	req.Equal(int64(1), total)
	req.Equal("c@x.com", page[0].Email)
}
