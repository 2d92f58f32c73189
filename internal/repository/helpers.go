package repository

import (
	"database/sql"

	"github.com/lib/pq"
)

// pqStrings adapts a string slice for use with = ANY($n).
func pqStrings(v []string) pq.StringArray {
	return pq.StringArray(v)
}

// expectRow returns sql.ErrNoRows when res touched nothing.
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
