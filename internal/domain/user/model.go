package user

// Principal is the authenticated caller of a command.
type Principal struct {
	UserID string
	Name   string
}
