// Package broadcaster announces popped items downstream.
//
// Every successful pop leaves a record in the pebble outbox
// (infra/wal/exit). The broadcaster walks NEW and FAILED records in ID
// order, marks them SENT, publishes one JSON Event per item keyed by its
// ID and marks them ACKED once the broker has accepted the message. A
// crash between SENT and ACKED republishes the item on the next scan, so
// consumers must tolerate duplicates.
package broadcaster
