package entity

// User is the public projection of an account, as embedded in review listings.
// Accounts themselves are managed by the identity provider.
type User struct {
	ID    int64
	Name  string
	Email string
}
