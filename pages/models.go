package pages

import (
	"time"

	"github.com/uptrace/bun"
)

// PageType groups pages by where the storefront surfaces them.
type PageType string

const (
	TypeAbout   PageType = "about"
	TypePolicy  PageType = "policy"
	TypeSupport PageType = "support"
	TypeLegal   PageType = "legal"
)

// Page is an editorial page addressable by slug and by type.
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:pg"`

	ID              int64     `bun:"id,pk,autoincrement" json:"id"`
	Title           string    `bun:"title,notnull" json:"title"`
	Slug            string    `bun:"slug,notnull,unique" json:"slug"`
	PageType        PageType  `bun:"page_type,notnull" json:"page_type"`
	Content         string    `bun:"content" json:"content"`
	MetaDescription string    `bun:"meta_description" json:"meta_description"`
	SortOrder       int       `bun:"sort_order,notnull,default:0" json:"sort_order"`
	IsActive        bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// FAQ is one question on the help page.
type FAQ struct {
	bun.BaseModel `bun:"table:faqs,alias:fq"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Question  string    `bun:"question,notnull" json:"question"`
	Answer    string    `bun:"answer,notnull" json:"answer"`
	SortOrder int       `bun:"sort_order,notnull,default:0" json:"sort_order"`
	IsActive  bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Models lists the page tables in creation order.
func Models() []any {
	return []any{
		(*Page)(nil),
		(*FAQ)(nil),
	}
}
