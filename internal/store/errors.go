package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrForeignKey = errors.New("foreign key constraint violation")
	ErrDuplicate  = errors.New("unique constraint violation")
)

// translate maps driver and GORM errors onto the store sentinels. GORM's
// error translation covers the postgres and sqlite drivers; the message
// checks catch drivers opened without TranslateError.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated), strings.Contains(msg, "foreign key"):
		return fmt.Errorf("%w: %v", ErrForeignKey, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(msg, "unique constraint"):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
