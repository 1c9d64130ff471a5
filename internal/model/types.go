package model

// User represents the signed-in person. It is replaced wholesale on login and
// cleared wholesale on logout.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// IsZero reports whether u carries no identity.
func (u User) IsZero() bool {
	return u == User{}
}
