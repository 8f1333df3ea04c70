package cache

import "time"

// TTL tiers. More volatile data gets a shorter TTL; the tier a domain uses
// is part of its contract and tests rely on it, so change these with care.
const (
	// TTLCart covers cart payloads and cart aggregates, which change on
	// every user action.
	TTLCart = 15 * time.Minute

	// TTLWishlist covers wishlist payloads, items and counts.
	TTLWishlist = 15 * time.Minute

	// TTLOrder covers orders, order items and per-user order lists, which
	// change on status transitions.
	TTLOrder = 15 * time.Minute

	// TTLBrand covers brands, vehicle models and part categories: rarely
	// written, very frequently read.
	TTLBrand = 15 * time.Minute

	// TTLProduct covers product detail and search payloads.
	TTLProduct = 10 * time.Minute

	// TTLTransaction covers payment transactions and refunds.
	TTLTransaction = 15 * time.Minute

	// TTLPaymentConfig covers gateway configuration, which is
	// admin-configured and changes almost never.
	TTLPaymentConfig = time.Hour

	// TTLContent covers editorial content: pages, FAQs and landing blocks.
	TTLContent = 15 * time.Minute

	// TTLSiteConfig covers the landing site configuration singleton.
	TTLSiteConfig = time.Hour

	// TTLUser covers cached user lookups by email or phone.
	TTLUser = 15 * time.Minute

	// TTLOTP bounds one-time passwords held only in the cache.
	TTLOTP = 10 * time.Minute
)
