// Package kafka holds the downstream publishers for pop events. Two
// clients are supported: segmentio/kafka-go and IBM/sarama.
package kafka
