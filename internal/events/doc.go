// Package events carries feed notifications to the outside world.
//
// Every driver implements Publisher and encodes events as JSON:
//   - NATSPublisher publishes to the subject named by the topic
//   - RedisPublisher publishes on the pub/sub channel named by the topic
//   - KafkaPublisher writes to the Kafka topic named by the topic
//   - Hub pushes an Envelope to connected websocket clients
//
// Fanout combines a broker driver with the Hub. Callers treat delivery as
// best effort: a failed publish is logged, never retried.
package events
