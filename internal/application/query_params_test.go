package application

import (
	"testing"

	"github.com/stretchr/testify/require"

	"user-registry/internal/domain/repository"
)

func TestTranslateListParams_Defaults(t *testing.T) {
	req := require.New(t)

	q, err := TranslateListParams(ListParams{})
	req.NoError(err)
	req.Equal(10, q.Limit)
	req.Equal(0, q.Offset)
	req.Equal("name", q.OrderBy)
	req.Equal(repository.OrderAsc, q.Order)
	req.Nil(q.Filter.Name)
	req.Nil(q.Filter.Email)
	req.Nil(q.Filter.Age)
}

func TestTranslateListParams_LimitAndOffset(t *testing.T) {
	t.Run("valid values pass through", func(t *testing.T) {
		req := require.New(t)
		q, err := TranslateListParams(ListParams{Limit: "25", Offset: "50"})
		req.NoError(err)
		req.Equal(25, q.Limit)
		req.Equal(50, q.Offset)
	})

	t.Run("oversized limit is clamped", func(t *testing.T) {
		req := require.New(t)
		q, err := TranslateListParams(ListParams{Limit: "5000"})
		req.NoError(err)
		req.Equal(100, q.Limit)
	})

	t.Run("non-numeric limit is rejected", func(t *testing.T) {
		req := require.New(t)
		_, err := TranslateListParams(ListParams{Limit: "ten"})
		var verr *ValidationError
		req.ErrorAs(err, &verr)
		req.Contains(verr.Fields, "limit")
	})

	t.Run("negative values are rejected", func(t *testing.T) {
		req := require.New(t)
		_, err := TranslateListParams(ListParams{Limit: "-1", Offset: "-5"})
		var verr *ValidationError
		req.ErrorAs(err, &verr)
		req.Contains(verr.Fields, "limit")
		req.Contains(verr.Fields, "offset")
	})
}

func TestTranslateListParams_Order(t *testing.T) {
	req := require.New(t)

	q, err := TranslateListParams(ListParams{Order: "desc", OrderBy: "age"})
	req.NoError(err)
	req.Equal(repository.OrderDesc, q.Order)
	req.Equal("age", q.OrderBy)

	_, err = TranslateListParams(ListParams{Order: "sideways"})
	var verr *ValidationError
	req.ErrorAs(err, &verr)
	req.Contains(verr.Fields, "order")

	_, err = TranslateListParams(ListParams{OrderBy: "password"})
	req.ErrorAs(err, &verr)
	req.Contains(verr.Fields, "order_by")
}

func TestTranslateListParams_Where(t *testing.T) {
	t.Run("allow-listed fields are typed", func(t *testing.T) {
		req := require.New(t)
		q, err := TranslateListParams(ListParams{Where: map[string]string{
			"name":  "Alice",
			"email": "alice@example.com",
			"age":   "18",
		}})
		req.NoError(err)
		req.NotNil(q.Filter.Name)
		req.Equal("Alice", *q.Filter.Name)
		req.NotNil(q.Filter.Email)
		req.Equal("alice@example.com", *q.Filter.Email)
		req.NotNil(q.Filter.Age)
		req.Equal(18, *q.Filter.Age)
	})

	t.Run("unknown fields are rejected, not passed through", func(t *testing.T) {
		req := require.New(t)
		_, err := TranslateListParams(ListParams{Where: map[string]string{
			"is_admin": "true",
		}})
		var verr *ValidationError
		req.ErrorAs(err, &verr)
		req.Contains(verr.Fields, "where[is_admin]")
	})

	t.Run("age outside range is rejected", func(t *testing.T) {
		req := require.New(t)
		_, err := TranslateListParams(ListParams{Where: map[string]string{"age": "130"}})
		var verr *ValidationError
		req.ErrorAs(err, &verr)
		req.Contains(verr.Fields, "where[age]")

		_, err = TranslateListParams(ListParams{Where: map[string]string{"age": "old"}})
		req.ErrorAs(err, &verr)
		req.Contains(verr.Fields, "where[age]")
	})
}
