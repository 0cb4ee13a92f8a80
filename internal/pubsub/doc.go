// Package pubsub implements the topic-scoped change feed.
//
// A topic is a plain string. Publish hands an event to every subscriber
// currently registered on the topic and returns immediately: each
// subscriber owns a bounded queue, and when that queue is full the
// configured backpressure policy drops an event for that subscriber only.
// Nothing is buffered for topics without subscribers and nothing is
// replayed to late subscribers.
//
// Guarantees:
//   - Per subscriber, events arrive in publish order for its topic
//   - No ordering across topics
//   - Once Close returns (or the subscribe context is cancelled and the
//     subscription has been detached) no further events are delivered and
//     the Events channel is closed
package pubsub
