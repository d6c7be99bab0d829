package plans

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ID identifies a subscription tier.
type ID string

const (
	Starter      ID = "starter"
	Professional ID = "professional"
	Enterprise   ID = "enterprise"
)

// Lowest is the tier used when a stored plan identifier is no longer recognised.
const Lowest = Starter

// ParseID converts external text into a plan ID.
func ParseID(s string) (ID, bool) {
	switch ID(strings.ToLower(strings.TrimSpace(s))) {
	case Starter:
		return Starter, true
	case Professional:
		return Professional, true
	case Enterprise:
		return Enterprise, true
	}
	return "", false
}

func (id ID) String() string { return string(id) }

// UnmarshalJSON rejects identifiers outside the catalog.
func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, ok := ParseID(s)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlan, s)
	}
	*id = parsed
	return nil
}

// Category is a metered resource. The string values are the public contract vocabulary.
type Category string

const (
	Conversations Category = "conversations"
	DataSources   Category = "dataSources"
	Users         Category = "users"
)

// Categories lists every metered category in display order.
var Categories = []Category{Conversations, DataSources, Users}

// ParseCategory converts external text into a Category.
// The snake_case storage spelling "data_sources" is accepted as well.
func ParseCategory(s string) (Category, error) {
	switch strings.TrimSpace(s) {
	case string(Conversations):
		return Conversations, nil
	case string(DataSources), "data_sources":
		return DataSources, nil
	case string(Users):
		return Users, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// StorageKey is the snake_case name used for database columns and counter keys.
func (c Category) StorageKey() string {
	if c == DataSources {
		return "data_sources"
	}
	return string(c)
}

func (c Category) String() string { return string(c) }

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	switch c {
	case Conversations, DataSources, Users:
		return true
	}
	return false
}

// UnmarshalJSON rejects categories outside the closed set.
func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
