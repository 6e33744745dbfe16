package entity

// User is the aggregate root for the user domain.
// ID is assigned by the store on insert and never changes afterwards.
// Age is optional; nil means unknown.
type User struct {
	ID    int64
	Name  string
	Email string
	Age   *int
}
