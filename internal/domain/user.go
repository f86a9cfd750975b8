package domain

import "time"

// UserPlan enumerates billing plans.
type UserPlan string

const (
	UserPlanFree UserPlan = "free"
	UserPlanPro  UserPlan = "pro"
)

// User represents an account that owns predictions and a credit balance.
type User struct {
	ID        string
	Email     string
	Plan      UserPlan
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFree reports whether the user is using the free plan.
func (u User) IsFree() bool {
	return u.Plan == UserPlanFree
}
