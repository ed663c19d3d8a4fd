package storage

import (
	"userapi/domain"
)

const usersTable = "users"

type user struct {
	ID        int64  `db:"id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Age       *int64 `db:"age"`
}

func fromDomain(duser domain.User) user {
	return user{
		ID:        int64(duser.ID),
		FirstName: duser.FirstName,
		LastName:  duser.LastName,
		Age:       duser.Age,
	}
}

func toDomain(usr user) domain.User {
	return domain.User{
		ID:        domain.UserID(usr.ID),
		FirstName: usr.FirstName,
		LastName:  usr.LastName,
		Age:       usr.Age,
	}
}
