package sql

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cubestudio/dataset-admin/pkg/access"
)

//nolint:gochecknoglobals
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ownerListExpr renders ",<owner without spaces>," for the current dialect so
// that membership of a token is a LIKE '%,token,%' test.
func ownerListExpr(dialect string) string {
	switch dialect {
	case "sqlite", "postgres":
		return "(',' || REPLACE(dataset.owner, ' ', '') || ',')"
	default:
		return "CONCAT(',', REPLACE(dataset.owner, ' ', ''), ',')"
	}
}

// ownershipScope limits a dataset query to the rows caller may view:
// administrators see everything, others see rows whose owner set lists their
// username or the wildcard.
func ownershipScope(caller access.Caller) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if caller.IsAdmin() {
			return tx
		}

		owners := ownerListExpr(tx.Dialector.Name())
		public := "%," + access.Wildcard + ",%"

		username := strings.TrimSpace(caller.Username)
		if username == "" {
			return tx.Where(owners+" LIKE ?", public)
		}

		return tx.Where(
			fmt.Sprintf("(%s LIKE ? ESCAPE '!' OR %s LIKE ?)", owners, owners),
			"%,"+likeEscaper.Replace(username)+",%",
			public,
		)
	}
}
