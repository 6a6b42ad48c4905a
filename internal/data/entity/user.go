package entity

type UserRole string

const (
	RoleCustomer  UserRole = "customer"
	RoleOrganizer UserRole = "organizer"
	RoleAdmin     UserRole = "admin"
)

type User struct {
	Base
	Username     string   `db:"username"`
	Email        string   `db:"email"`
	PasswordHash string   `db:"password"`
	Phone        *string  `db:"phone"`
	Role         UserRole `db:"role"`
	IsActive     bool     `db:"is_active"`
}

// CanCheckIn reports whether the user may scan tickets at the door.
func (u *User) CanCheckIn() bool {
	return u.Role == RoleOrganizer || u.Role == RoleAdmin
}
