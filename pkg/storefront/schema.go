package storefront

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by profile name to enable
// multiple storefront profiles (e.g. two shoppers on one machine, or test
// fixtures) to safely coexist on a single Redis server.
//
// Key pattern: aether:{profile}:{entity}
// Channel pattern: aether:{profile}:{event_type}_events

// GuestCartKey returns the Redis key for the guest cart hash.
// Pattern: aether:{profile}:guest_cart
func GuestCartKey(profile string) string {
	return fmt.Sprintf("aether:%s:guest_cart", profile)
}

// SessionKey returns the Redis key for the persisted auth session hash.
// Pattern: aether:{profile}:session
func SessionKey(profile string) string {
	return fmt.Sprintf("aether:%s:session", profile)
}

// GuestCartEventsChannel returns the Pub/Sub channel name for guest cart
// change events. Every mutation publishes the full cart snapshot here so
// other processes on the same profile can follow along.
// Pattern: aether:{profile}:guest_cart_events
func GuestCartEventsChannel(profile string) string {
	return fmt.Sprintf("aether:%s:guest_cart_events", profile)
}
