package access

import (
	"strings"

	"github.com/cubestudio/dataset-admin/pkg/utils"
)

// Wildcard in an owner list makes a dataset visible to everyone.
const Wildcard = "*"

// Owners is the parsed form of the comma separated owner column.
type Owners []string

func ParseOwners(raw string) Owners {
	return Owners(utils.Unique(utils.SplitNonEmpty(raw, ",")))
}

func (o Owners) String() string {
	return strings.Join(o, ",")
}

func (o Owners) Contains(username string) bool {
	if username == "" {
		return false
	}

	for _, owner := range o {
		if owner == username {
			return true
		}
	}

	return false
}

func (o Owners) IsPublic() bool {
	return o.Contains(Wildcard)
}

// DefaultOwners is what an unowned record gets on save: the creator, world readable.
func DefaultOwners(creator string) Owners {
	return Owners{creator, Wildcard}
}

// Record is the subset of a dataset the authorization rules look at.
type Record interface {
	GetOwner() string
	GetCreatedBy() string
}

// CanView reports whether caller may read record. It mirrors the list scope
// applied by the store.
func CanView(caller Caller, record Record) bool {
	if caller.IsAdmin() {
		return true
	}

	owners := ParseOwners(record.GetOwner())

	return owners.IsPublic() || owners.Contains(caller.Username)
}

// CanModify reports whether caller may edit, delete or upload into record.
// The wildcard grants visibility only.
func CanModify(caller Caller, record Record) bool {
	if caller.IsAdmin() || isCreator(caller, record) {
		return true
	}

	return ParseOwners(record.GetOwner()).Contains(caller.Username)
}

func isCreator(caller Caller, record Record) bool {
	return caller.Username != "" && caller.Username == record.GetCreatedBy()
}
