package models

import "time"

// DefaultStatus is assigned to every new account.
const DefaultStatus = "I am new!"

// User is an account together with the ids of the posts it owns.
type User struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // never serialize
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Posts     []string  `json:"posts"`
	CreatedAt time.Time `json:"createdAt"`
}

// Creator is the public slice of a User embedded in post responses.
type Creator struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

func (u *User) Creator() Creator {
	return Creator{ID: u.ID, Name: u.Name}
}

// SignupRequest is the JSON body for POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"min=5"`
	Name     string `json:"name"     validate:"required"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StatusRequest is the JSON body for PUT /feed/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}
