// README: Identifier type shared by rides, drivers and users.
package types

type ID string

func (id ID) String() string {
	return string(id)
}
