// Package repository holds the PostgreSQL access for the inventory domain.
// Every method accepts the context of a database.DB transaction, so services
// can compose several calls into one atomic unit.
package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/cbsistema/cbsistema-backend/pkg/errors"
)

// requireAffected turns a zero-row result into a NotFound for resource.
func requireAffected(result sql.Result, resource string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Storage("read affected rows", err)
	}
	if n == 0 {
		return errors.NotFound(resource)
	}
	return nil
}

// maxBindParams is PostgreSQL's limit on parameters in one statement.
var maxBindParams = 65535

// chunkRows splits rows tuples of width columns into [start, end) ranges
// that each fit in one statement.
func chunkRows(rows, width int) [][2]int {
	per := maxBindParams / width
	var ranges [][2]int
	for start := 0; start < rows; start += per {
		end := start + per
		if end > rows {
			end = rows
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

// valuesList renders "($1, $2), ($3, $4)" for rows tuples of width columns.
func valuesList(rows, width int) string {
	var b strings.Builder
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < width; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*width+j+1)
		}
		b.WriteByte(')')
	}
	return b.String()
}
