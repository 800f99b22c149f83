package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"CampusPortal/internal/rbac"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         rbac.Role          `bson:"role" json:"role"`
	Department   string             `bson:"department,omitempty" json:"department,omitempty"`
	StudentID    string             `bson:"student_id,omitempty" json:"studentId,omitempty"`   // students only
	EmployeeID   string             `bson:"employee_id,omitempty" json:"employeeId,omitempty"` // faculty and admin
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Principal returns the caller identity for u.
func (u *User) Principal() rbac.Principal {
	return rbac.Principal{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

type RegisterRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	Role       string `json:"role" validate:"required,oneof=student faculty admin"`
	Department string `json:"department"`
	StudentID  string `json:"studentId"`
	EmployeeID string `json:"employeeId"`
}

type Credential struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
