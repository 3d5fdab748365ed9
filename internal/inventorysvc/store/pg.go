package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// decimalNull is an absent bound.
var decimalNull = decimal.NullDecimal{}

func nullNumeric(d decimal.NullDecimal) pgtype.Numeric {
	if !d.Valid {
		return pgtype.Numeric{}
	}
	return numeric(d.Decimal)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// where collects AND-ed conditions and their positional arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// price adds bounds on col. With includeUnpriced, NULL prices also match.
func (w *where) price(col string, min, max, maxBelow decimal.NullDecimal, includeUnpriced bool) {
	var parts []string
	if min.Valid {
		parts = append(parts, col+" >= "+w.arg(nullNumeric(min)))
	}
	if max.Valid {
		parts = append(parts, col+" <= "+w.arg(nullNumeric(max)))
	}
	if maxBelow.Valid {
		parts = append(parts, col+" < "+w.arg(nullNumeric(maxBelow)))
	}
	if len(parts) == 0 {
		return
	}
	cond := strings.Join(parts, " AND ")
	if includeUnpriced {
		cond = "(" + cond + ") OR " + col + " IS NULL"
	}
	w.add("(" + cond + ")")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
