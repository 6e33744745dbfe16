package entity

// UserCreated is the payload published to the message queue after a user
// record has been committed. Delivery is at-least-once; consumers must
// tolerate duplicates.
type UserCreated struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
