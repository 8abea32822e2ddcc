package models

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operador"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOperator
}

// Roles lists every assignable role.
func Roles() []Role { return []Role{RoleAdmin, RoleOperator} }

// MaxLoginAttempts is the consecutive-failure count that locks an account.
const MaxLoginAttempts = 3

type User struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	FirstName     string     `gorm:"column:first_name;not null" json:"firstName"`
	LastName      string     `gorm:"column:last_name;not null" json:"lastName"`
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	Password      string     `gorm:"not null" json:"-"`
	Role          Role       `gorm:"not null;default:'operador'" json:"role"`
	Active        bool       `gorm:"column:status;not null" json:"status"`
	LoginAttempts int        `gorm:"column:login_attempts;not null;default:0" json:"loginAttempts"`
	CreatedAt     LocalTime  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     *LocalTime `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// FullName is the display name used by operator reports.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Locked reports whether the account is barred from logging in until an
// administrator re-activates it.
func (u *User) Locked() bool { return !u.Active }
