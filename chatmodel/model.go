package chatmodel

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

var (
	ErrFailedUnmarshalInput = errors.New("failed to unmarshal input: check the schema and try again")
)

type Stringer interface {
	String() string
}

// Stringify returns the value as string,
// types without String() are rendered as JSON.
func Stringify(s any) string {
	switch v := s.(type) {
	case string:
		return v
	case Stringer:
		return v.String()
	}
	bs, _ := json.Marshal(s)
	return string(bs)
}
