package cart

import "github.com/autozen/backend/cache"

const cartPrefix = "cart"

// Per-user keys.
func cartKey(userID int64) string      { return cache.Key(cartPrefix, cache.ID(userID)) }
func cartItemsKey(userID int64) string { return cache.Key(cartPrefix, "items", cache.ID(userID)) }

// Per-cart aggregate keys.
func itemsCountKey(cartID int64) string {
	return cache.Key(cartPrefix, "items", "count", cache.ID(cartID))
}

func totalQuantityKey(cartID int64) string {
	return cache.Key(cartPrefix, "total", "quantity", cache.ID(cartID))
}

func subtotalKey(cartID int64) string {
	return cache.Key(cartPrefix, "subtotal", cache.ID(cartID))
}

// cartFanout enumerates every key any cart mutation makes stale: the
// cached cart and item list for the user plus the three aggregates for
// the cart.
func cartFanout(userID, cartID int64) []string {
	return []string{
		cartKey(userID),
		cartItemsKey(userID),
		itemsCountKey(cartID),
		totalQuantityKey(cartID),
		subtotalKey(cartID),
	}
}
