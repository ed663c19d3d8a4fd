package server

import (
	"userapi/domain"
)

// user is the JSON shape of a User on the wire.
type user struct {
	Id        domain.UserID `json:"id"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Age       *int64        `json:"age"`
}

// userRequest is the body accepted by create and update. Pointers let the
// binder tell a missing name apart from an empty one; a supplied id is ignored.
type userRequest struct {
	Id        *domain.UserID `json:"id"`
	FirstName *string        `json:"firstName" binding:"required"`
	LastName  *string        `json:"lastName" binding:"required"`
	Age       *int64         `json:"age"`
}

func (u *userRequest) toDomain() domain.User {
	return domain.User{
		FirstName: *u.FirstName,
		LastName:  *u.LastName,
		Age:       u.Age,
	}
}

func fromDomain(duser domain.User) user {
	return user{
		Id:        duser.ID,
		FirstName: duser.FirstName,
		LastName:  duser.LastName,
		Age:       duser.Age,
	}
}

type listQuery struct {
	Skip  *int `form:"skip"`
	Limit *int `form:"limit"`
}
