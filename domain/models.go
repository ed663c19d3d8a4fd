package domain

import (
	"errors"
)

type UserID int64

type User struct {
	ID        UserID
	FirstName string
	LastName  string
	Age       *int64
}

var ErrUserNotFound = errors.New("User not found")
