package db

import (
	"fmt"
	"strings"
)

// Field is a filterable games column
type Field string

const (
	FieldName        Field = "name"
	FieldPlatform    Field = "platform"
	FieldPublisherID Field = "publisher_id"
	FieldBundleID    Field = "bundle_id"
	FieldStoreID     Field = "store_id"
	FieldAppVersion  Field = "app_version"
)

func (f Field) valid() bool {
	switch f {
	case FieldName, FieldPlatform, FieldPublisherID, FieldBundleID, FieldStoreID, FieldAppVersion:
		return true
	}
	return false
}

// Filter is a predicate over the games table.
// Implementations: NoFilter, Contains, Equals, And.
type Filter interface {
	where(args *queryArgs) (string, error)
}

// NoFilter matches every row
type NoFilter struct{}

func (NoFilter) where(*queryArgs) (string, error) {
	return "", nil
}

// Contains matches rows whose Field contains Substr (case-sensitive, unanchored).
// Rows where Field is NULL never match.
type Contains struct {
	Field  Field
	Substr string
}

func (c Contains) where(args *queryArgs) (string, error) {
	if !c.Field.valid() {
		return "", fmt.Errorf("unknown filter field %q", c.Field)
	}
	p := args.add("%" + escapeLike(c.Substr) + "%")
	return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, c.Field, p), nil
}

// Equals matches rows whose Field equals Value exactly
type Equals struct {
	Field Field
	Value string
}

func (e Equals) where(args *queryArgs) (string, error) {
	if !e.Field.valid() {
		return "", fmt.Errorf("unknown filter field %q", e.Field)
	}
	return fmt.Sprintf("%s = %s", e.Field, args.add(e.Value)), nil
}

// And matches rows satisfying every member
type And []Filter

func (a And) where(args *queryArgs) (string, error) {
	clauses := make([]string, 0, len(a))
	for _, f := range a {
		if f == nil {
			continue
		}
		clause, err := f.where(args)
		if err != nil {
			return "", err
		}
		if clause != "" {
			clauses = append(clauses, clause)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "(" + strings.Join(clauses, " AND ") + ")", nil
}

// SearchFilter builds the search route predicate: name contains `name`, and platform
// equals `platform` unless platform is absent or empty.
func SearchFilter(name, platform *string) Filter {
	var substr string
	if name != nil {
		substr = *name
	}

	filter := And{Contains{Field: FieldName, Substr: substr}}
	if platform != nil && *platform != "" {
		filter = append(filter, Equals{Field: FieldPlatform, Value: *platform})
	}
	return filter
}

// queryArgs collects positional arguments and hands out $n placeholders
type queryArgs struct {
	values []interface{}
}

func (q *queryArgs) add(v interface{}) string {
	q.values = append(q.values, v)
	return fmt.Sprintf("$%d", len(q.values))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// buildWhere renders a filter as a WHERE clause (empty when the filter matches all)
func buildWhere(filter Filter, args *queryArgs) (string, error) {
	if filter == nil {
		return "", nil
	}
	clause, err := filter.where(args)
	if err != nil || clause == "" {
		return "", err
	}
	return " WHERE " + clause, nil
}
