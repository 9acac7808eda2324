package dbmanager

import (
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

// PostgreSQL truncates identifiers longer than NAMEDATALEN-1 bytes.
const maxIdentifierLen = 63

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier accepts letters, digits and underscores, not starting
// with a digit, at most 63 bytes. The error matches both
// common.ErrValidation and common.ErrInvalidIdentifier.
func ValidateIdentifier(name string) error {
	if len(name) > maxIdentifierLen || !identRe.MatchString(name) {
		return fmt.Errorf("%w: %w: %q", common.ErrValidation, common.ErrInvalidIdentifier, name)
	}
	return nil
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func quoteLiteral(s string) string {
	return pq.QuoteLiteral(s)
}
