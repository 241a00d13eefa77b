package model

import "time"

type Role string

const (
	RoleClient    Role = "client"
	RoleStaff     Role = "staff"
	RoleCollector Role = "collector"
	RoleAdmin     Role = "admin"
)

type ProfileStatus string

const (
	ProfileStatusActive    ProfileStatus = "active"
	ProfileStatusInactive  ProfileStatus = "inactive"
	ProfileStatusSuspended ProfileStatus = "suspended"
)

// Profile is the identity record the core trusts as supplied. The ID is the
// external auth subject, not a Mongo ObjectID.
type Profile struct {
	ID        string        `bson:"_id" json:"id"`
	FullName  string        `bson:"full_name" json:"full_name"`
	Role      Role          `bson:"role" json:"role"`
	Status    ProfileStatus `bson:"status" json:"status"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updated_at"`
}
