package users

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/autozen/backend/cache"
	"github.com/autozen/backend/internal/store"
)

func userKey(identifier string) string { return cache.Key("user", identifier) }
func otpKey(identifier string) string  { return cache.Key("otp", identifier) }

// Service exposes the cache-aware account lookups and the OTP flow. OTP
// codes live only in the cache: the TTL is the expiry, and a verified or
// deleted code is gone.
type Service struct {
	db    bun.IDB
	cache cache.Cache
	inv   *cache.Invalidator
	log   *zap.Logger
}

// New wires a users service to the store and cache.
func New(db bun.IDB, c cache.Cache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:    db,
		cache: c,
		inv:   cache.NewInvalidator(c, log),
		log:   log,
	}
}

// ByIdentifier returns the account behind an email or phone number. An
// identifier containing '@' is treated as an email, anything else as a
// phone number. Each identifier caches under its own key.
func (s *Service) ByIdentifier(ctx context.Context, identifier string) (*User, error) {
	column := "u.phone"
	if strings.ContainsRune(identifier, '@') {
		column = "u.email"
	}
	return cache.GetOrFetch(ctx, s.cache, userKey(identifier), cache.TTLUser,
		func(ctx context.Context) (*User, error) {
			u := new(User)
			if err := s.db.NewSelect().Model(u).
				Where(column+" = ?", identifier).
				Scan(ctx); err != nil {
				return nil, store.AsNotFound(err)
			}
			return u, nil
		})
}

// CacheUser populates both identifier keys from an already-loaded
// account, so the login path that just read the row warms the lookups
// directly.
func (s *Service) CacheUser(ctx context.Context, u *User) {
	for _, identifier := range []string{u.Email, u.Phone} {
		if identifier == "" {
			continue
		}
		if err := cache.Put(ctx, s.cache, userKey(identifier), cache.TTLUser, u); err != nil {
			s.log.Warn("user cache populate failed",
				zap.String("key", userKey(identifier)),
				zap.Error(err))
		}
	}
}

// Save creates or updates an account and invalidates both identifier
// keys.
func (s *Service) Save(ctx context.Context, u *User) error {
	var err error
	if u.ID == 0 {
		_, err = s.db.NewInsert().Model(u).Exec(ctx)
	} else {
		u.UpdatedAt = time.Now()
		_, err = s.db.NewUpdate().Model(u).ExcludeColumn("created_at").WherePK().Exec(ctx)
	}
	if err != nil {
		return err
	}
	s.inv.Invalidate(ctx, userKey(u.Email), userKey(u.Phone))
	return nil
}

// TouchLastLogin stamps the account's last login and refreshes both
// cached lookups with the updated row.
func (s *Service) TouchLastLogin(ctx context.Context, u *User) error {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
	if _, err := s.db.NewUpdate().Model(u).
		Column("last_login_at", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return err
	}
	s.CacheUser(ctx, u)
	return nil
}

// StoreOTP saves a one-time code for the identifier. The cache TTL is
// the code's validity window; there is no store row to fall back to.
func (s *Service) StoreOTP(ctx context.Context, identifier, code string) error {
	return s.cache.Set(ctx, otpKey(identifier), []byte(code), cache.TTLOTP)
}

// VerifyOTP checks a submitted code. A match consumes the code; a
// mismatch leaves it in place for another attempt until the TTL runs
// out.
func (s *Service) VerifyOTP(ctx context.Context, identifier, code string) bool {
	stored, ok := s.cache.Get(ctx, otpKey(identifier))
	if !ok {
		return false
	}
	if subtle.ConstantTimeCompare(stored, []byte(code)) != 1 {
		return false
	}
	s.DeleteOTP(ctx, identifier)
	return true
}

// DeleteOTP discards the identifier's pending code, if any.
func (s *Service) DeleteOTP(ctx context.Context, identifier string) {
	if err := s.cache.Delete(ctx, otpKey(identifier)); err != nil {
		s.log.Warn("otp delete failed",
			zap.String("key", otpKey(identifier)),
			zap.Error(err))
	}
}
