// Package replay provides the replaying relay.Publisher.
//
// Every key keeps an ordered history of the payloads written to it. A subscriber that
// joins late first receives that history, in order, and then follows new writes on the
// same sink. Several subscribers per key are allowed and each gets its own copy.
//
// Key state expires DefaultTTL after it was first touched, whether or not it saw
// traffic since. Expiry drops the history and closes the key's sinks once they
// received what was written before.
//
//	pub := replay.New[int32, submission.Update](replay.WithTTL(time.Minute))
//	defer pub.Close()
//
//	pub.Append(42, update)
//	sink, err := pub.Stream(ctx, 42)
package replay
