package sqlite

import "strings"

// listQuery assembles a filtered, paginated SELECT.
type listQuery struct {
	base  string
	conds []string
	args  []any
}

func newListQuery(base string) *listQuery {
	return &listQuery{base: base}
}

// where adds an equality filter on column.
func (q *listQuery) where(column string, value any) *listQuery {
	q.conds = append(q.conds, column+" = ?")
	q.args = append(q.args, value)
	return q
}

// build appends the filters, ordering and pagination. A non-positive limit
// means no limit.
func (q *listQuery) build(orderBy string, limit, offset int) (string, []any) {
	var sb strings.Builder
	sb.WriteString(q.base)
	if len(q.conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(q.conds, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderBy)

	args := append([]any(nil), q.args...)
	switch {
	case limit > 0:
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	case offset > 0:
		sb.WriteString(" LIMIT -1")
	}
	if offset > 0 {
		sb.WriteString(" OFFSET ?")
		args = append(args, offset)
	}
	return sb.String(), args
}
