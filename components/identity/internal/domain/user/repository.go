package user

import "context"

// Repository is the storage contract for users. email is unique per
// environment, not globally (§3 User): the same person can own a distinct
// row in each environment of a business. Create surfaces that violation
// for the caller to translate.
type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailAndEnvironment(ctx context.Context, email, environmentID string) (*User, error)
	FindByEmailAndBusiness(ctx context.Context, email, businessID string) (*User, error)
	ListByEmail(ctx context.Context, email string) ([]*User, error)
	List(ctx context.Context, f Filter) ([]*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
