// Package mutation implements create, update and delete for users, posts
// and comments.
//
// The engine is the only writer of the store. Each mutation:
//  1. takes the engine lock (mutations never interleave)
//  2. validates and applies its change, including any cascade, inside one
//     store transaction; a rejected mutation leaves the store untouched
//  3. after commit, publishes at most one event to the bus
//
// Events describe visibility as subscribers see it. A post that becomes
// published is announced as CREATED and one that becomes unpublished as
// DELETED, carrying the record as it was last visible. Users never produce
// events, and neither do posts or comments removed by a cascade.
package mutation
