// Package harness runs YAML scenarios against a fresh store, mutation
// engine and feed, and records a deterministic trace.
//
// A scenario is a list of steps. Each step is a mutation (createUser,
// updatePost, ...), a subscription (subscribePosts, subscribeComments) or
// an unsubscribe. After every step the harness drains whatever each open
// subscription has received, so the trace interleaves step results with
// the events they caused:
//
//	[4] subscribePosts ok posts
//	[5] updatePost ok {"id":"id-2",...}
//	    posts <- DELETED {"id":"id-2",...}
//
// Step arguments starting with "$" refer to the id returned by an earlier
// step's "as" alias. Ids come from a sequence generator (id-1, id-2, ...)
// unless overridden, so traces are stable enough for golden files.
package harness
