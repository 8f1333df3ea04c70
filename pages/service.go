package pages

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/autozen/backend/cache"
	"github.com/autozen/backend/internal/store"
)

// Service exposes the cache-aware editorial content accessors.
type Service struct {
	db    bun.IDB
	cache cache.Cache
	inv   *cache.Invalidator
	log   *zap.Logger
}

// New wires a pages service to the store and cache.
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

// ActivePages returns every published page in display order.
func (s *Service) ActivePages(ctx context.Context) ([]*Page, error) {
	return cache.GetOrFetch(ctx, s.cache, activePagesKey(), cache.TTLContent,
		func(ctx context.Context) ([]*Page, error) {
			var list []*Page
			err := s.db.NewSelect().Model(&list).
				Where("pg.is_active = ?", true).
				Order("pg.sort_order ASC", "pg.title ASC").
				Scan(ctx)
			return list, err
		})
}

// BySlug returns a published page by slug.
func (s *Service) BySlug(ctx context.Context, slug string) (*Page, error) {
	return cache.GetOrFetch(ctx, s.cache, pageKey(slug), cache.TTLContent,
		func(ctx context.Context) (*Page, error) {
			p := new(Page)
			if err := s.db.NewSelect().Model(p).
				Where("pg.slug = ?", slug).
				Where("pg.is_active = ?", true).
				Scan(ctx); err != nil {
				return nil, store.AsNotFound(err)
			}
			return p, nil
		})
}

// ByType returns the published pages of one type in display order.
func (s *Service) ByType(ctx context.Context, t PageType) ([]*Page, error) {
	return cache.GetOrFetch(ctx, s.cache, pageTypeKey(t), cache.TTLContent,
		func(ctx context.Context) ([]*Page, error) {
			var list []*Page
			err := s.db.NewSelect().Model(&list).
				Where("pg.page_type = ?", t).
				Where("pg.is_active = ?", true).
				Order("pg.sort_order ASC", "pg.title ASC").
				Scan(ctx)
			return list, err
		})
}

// SavePage creates or updates a page and invalidates its fan-out.
func (s *Service) SavePage(ctx context.Context, p *Page) error {
	var err error
	if p.ID == 0 {
		_, err = s.db.NewInsert().Model(p).Exec(ctx)
	} else {
		p.UpdatedAt = time.Now()
		_, err = s.db.NewUpdate().Model(p).ExcludeColumn("created_at").WherePK().Exec(ctx)
	}
	if err != nil {
		return err
	}
	s.inv.Invalidate(ctx, pageFanout(p)...)
	return nil
}

// DeletePage removes a page and invalidates its fan-out.
func (s *Service) DeletePage(ctx context.Context, p *Page) error {
	if _, err := s.db.NewDelete().Model(p).WherePK().Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, pageFanout(p)...)
	return nil
}

// ActiveFAQs returns the published questions in display order.
func (s *Service) ActiveFAQs(ctx context.Context) ([]*FAQ, error) {
	return cache.GetOrFetch(ctx, s.cache, activeFAQsKey(), cache.TTLContent,
		func(ctx context.Context) ([]*FAQ, error) {
			var list []*FAQ
			err := s.db.NewSelect().Model(&list).
				Where("fq.is_active = ?", true).
				Order("fq.sort_order ASC", "fq.id ASC").
				Scan(ctx)
			return list, err
		})
}

// SaveFAQ creates or updates a question and invalidates the list.
func (s *Service) SaveFAQ(ctx context.Context, f *FAQ) error {
	var err error
	if f.ID == 0 {
		_, err = s.db.NewInsert().Model(f).Exec(ctx)
	} else {
		f.UpdatedAt = time.Now()
		_, err = s.db.NewUpdate().Model(f).ExcludeColumn("created_at").WherePK().Exec(ctx)
	}
	if err != nil {
		return err
	}
	s.inv.Invalidate(ctx, activeFAQsKey())
	return nil
}

// DeleteFAQ removes a question and invalidates the list.
func (s *Service) DeleteFAQ(ctx context.Context, f *FAQ) error {
	if _, err := s.db.NewDelete().Model(f).WherePK().Exec(ctx); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, activeFAQsKey())
	return nil
}
