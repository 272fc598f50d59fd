package dataprovider

import "fmt"

// UnknownColumnError is returned before any SQL runs when a filter or sort key
// names a column the entity's table does not have.
type UnknownColumnError struct {
	Table  string
	Column string
}

func (e UnknownColumnError) Error() string {
	return fmt.Sprintf("dataprovider: table %s has no column %q", e.Table, e.Column)
}
