package application

import (
	"fmt"
	"strconv"
	"strings"

	"user-registry/internal/domain/repository"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// ListParams is the untyped pagination/filter/order request as it arrives
// from the transport layer. Offset arrives as text (query string); both
// limit and offset are normalized to integers here.
type ListParams struct {
	Limit   string
	Offset  string
	Order   string
	OrderBy string
	Where   map[string]string
}

// ValidationError reports the offending field set of a malformed request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return "invalid query: " + strings.Join(parts, "; ")
}

// TranslateListParams turns an open-ended request into a bounded, store-safe
// query. Unknown filter fields are rejected rather than passed through; this
// is the trust boundary that keeps caller input out of SQL identifiers.
func TranslateListParams(p ListParams) (repository.ListQuery, error) {
	fields := map[string]string{}

	q := repository.ListQuery{
		Limit:   defaultLimit,
		Offset:  0,
		OrderBy: "name",
		Order:   repository.OrderAsc,
	}

	if p.Limit != "" {
		n, err := strconv.Atoi(p.Limit)
		switch {
		case err != nil:
			fields["limit"] = "must be an integer"
		case n < 1:
			fields["limit"] = "must be positive"
		case n > maxLimit:
			q.Limit = maxLimit
		default:
			q.Limit = n
		}
	}

	if p.Offset != "" {
		n, err := strconv.Atoi(p.Offset)
		switch {
		case err != nil:
			fields["offset"] = "must be an integer"
		case n < 0:
			fields["offset"] = "must not be negative"
		default:
			q.Offset = n
		}
	}

	if p.Order != "" {
		switch strings.ToUpper(p.Order) {
		case string(repository.OrderAsc):
			q.Order = repository.OrderAsc
		case string(repository.OrderDesc):
			q.Order = repository.OrderDesc
		default:
			fields["order"] = "must be one of: ASC, DESC"
		}
	}

	if p.OrderBy != "" {
		switch p.OrderBy {
		case "id", "name", "email", "age":
			q.OrderBy = p.OrderBy
		default:
			fields["order_by"] = "must be one of: id, name, email, age"
		}
	}

	for field, value := range p.Where {
		switch field {
		case "name":
			v := value
			q.Filter.Name = &v
		case "email":
			v := value
			q.Filter.Email = &v
		case "age":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 || n > 120 {
				fields["where[age]"] = "must be an integer between 0 and 120"
				continue
			}
			q.Filter.Age = &n
		default:
			fields[fmt.Sprintf("where[%s]", field)] = "unknown filter field"
		}
	}

	if len(fields) > 0 {
		return repository.ListQuery{}, &ValidationError{Fields: fields}
	}
	return q, nil
}
