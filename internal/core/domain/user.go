package domain

// User models an account owned by the external identity service. The
// marketplace only reads it to resolve display fields.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// UserSummary is the display projection attached to gigs and bids.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Summary returns the display projection of u. A nil user yields a summary
// carrying only the id so listings never drop a row.
func (u *User) Summary(id string) UserSummary {
	if u == nil {
		return UserSummary{ID: id}
	}
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
