package users

import (
	"time"

	"github.com/uptrace/bun"
)

// User is an account addressable by email or phone number.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64      `bun:"id,pk,autoincrement"`
	Email        string     `bun:"email,notnull,unique"`
	Phone        string     `bun:"phone,notnull,unique"`
	FullName     string     `bun:"full_name"`
	PasswordHash string     `bun:"password_hash,notnull"`
	IsActive     bool       `bun:"is_active,notnull,default:true"`
	IsStaff      bool       `bun:"is_staff,notnull,default:false"`
	LastLoginAt  *time.Time `bun:"last_login_at"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Models lists the user tables in creation order.
func Models() []any {
	return []any{
		(*User)(nil),
	}
}
