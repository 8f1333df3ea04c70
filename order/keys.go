package order

import "github.com/autozen/backend/cache"

func userOrdersKey(userID int64) string {
	return cache.Key("user", "orders", cache.ID(userID))
}

func orderKey(number string) string {
	return cache.Key("order", number)
}

func orderItemsKey(orderID int64) string {
	return cache.Key("order", "items", cache.ID(orderID))
}

// orderFanout enumerates the keys any order write makes stale: the order
// itself, its item list and the owner's order history.
func orderFanout(o *Order) []string {
	return []string{
		orderKey(o.Number),
		orderItemsKey(o.ID),
		userOrdersKey(o.UserID),
	}
}
