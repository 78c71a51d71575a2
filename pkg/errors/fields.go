package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// LogFields flattens err into structured log fields. Postgres errors from
// either driver contribute their code, constraint, table and detail.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	fields := map[string]any{}

	var chain []string
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T", e))
	}
	fields["error_chain"] = chain

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case stdErrors.As(err, &pgxErr):
		putNonEmpty(fields, "pg_code", pgxErr.Code)
		putNonEmpty(fields, "pg_constraint", pgxErr.ConstraintName)
		putNonEmpty(fields, "pg_table", pgxErr.TableName)
		putNonEmpty(fields, "pg_detail", pgxErr.Detail)
	case stdErrors.As(err, &pqErr):
		putNonEmpty(fields, "pg_code", string(pqErr.Code))
		putNonEmpty(fields, "pg_constraint", pqErr.Constraint)
		putNonEmpty(fields, "pg_table", pqErr.Table)
		putNonEmpty(fields, "pg_detail", pqErr.Detail)
	}
	return fields
}

func putNonEmpty(fields map[string]any, key, value string) {
	if value != "" {
		fields[key] = value
	}
}
