package content

import (
	"errors"
	"strings"
)

var errBlank = errors.New("must not be blank")

// notBlank rejects strings made only of whitespace.
func notBlank(value any) error {
	s, _ := value.(string)
	if s != "" && strings.TrimSpace(s) == "" {
		return errBlank
	}
	return nil
}
