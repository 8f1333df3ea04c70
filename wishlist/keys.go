package wishlist

import "github.com/autozen/backend/cache"

const wishlistPrefix = "wishlist"

func wishlistKey(userID int64) string {
	return cache.Key(wishlistPrefix, "user", cache.ID(userID))
}

func itemsKey(userID int64) string {
	return cache.Key(wishlistPrefix, "items", "user", cache.ID(userID))
}

func countKey(userID int64) string {
	return cache.Key(wishlistPrefix, "count", "user", cache.ID(userID))
}

func responseKey(userID int64) string {
	return cache.Key(wishlistPrefix, "response", cache.ID(userID))
}

// userFanout enumerates every wishlist key a mutation makes stale. The
// assembled response caches separately from its parts, so it is listed
// too.
func userFanout(userID int64) []string {
	return []string{
		wishlistKey(userID),
		itemsKey(userID),
		countKey(userID),
		responseKey(userID),
	}
}
