package models

// Actor is the authenticated user a workflow acts for
type Actor struct {
	UserID string
	Role   string
}
