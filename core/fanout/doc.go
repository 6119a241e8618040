// Package fanout provides the direct relay.Publisher.
//
// One live sink per key: a new subscription replaces and closes the previous one.
// Publishing to a key without a subscription does nothing. When a push fails the
// subscription is removed and its sink closed; there is no retry or buffering.
// Every subscription expires DefaultTTL after it was created, regardless of traffic.
package fanout
