package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicate           = errors.New("record already exists")
	ErrShortCodeTaken      = errors.New("short code already taken")
	ErrShortCodeAlreadySet = errors.New("recipe already has a short code")
)

const pgUniqueViolation = "23505"

// isUniqueViolation recognises duplicate-key errors from either driver.
// gorm translates them when TranslateError is on; the pgconn check covers
// connections opened without it.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
