// Package notify holds the in-process notification core: topics, the
// subscription registry, and the dispatcher that fans order events out to
// live connections. Everything here is scoped to one server process;
// subscriptions are rebuilt from scratch on every reconnect.
package notify

// Topic is a named channel that zero or more live connections can be
// registered against, used to scope a broadcast.
type Topic string

// TopicAdmin is the broadcast channel every admin console listens on.
const TopicAdmin Topic = "admin"

// OrderTopic scopes broadcasts to parties tracking one order.
func OrderTopic(orderID string) Topic {
	return Topic("order:" + orderID)
}

// UserTopic is a customer's personal notification channel.
func UserTopic(userID string) Topic {
	return Topic("user:" + userID)
}
