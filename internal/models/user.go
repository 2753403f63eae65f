package models

import "time"

type UserRole string

const (
	RoleCandidate     UserRole = "candidate"
	RoleRecruiter     UserRole = "recruiter"
	RoleCompanyAdmin  UserRole = "company_admin"
	RolePlatformAdmin UserRole = "platform_admin"
)

// from the auth provider; not persisted here
type User struct {
	ID           string    `json:"id"` // uuid
	Email        string    `json:"email"`
	CompanyID    string    `json:"company_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastSignInAt time.Time `json:"last_sign_in_at"`
	Role         UserRole  `json:"role"`
}
