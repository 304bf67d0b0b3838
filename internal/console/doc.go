// Package console implements the interactive side of mqttconsole.
//
// The Loop reads one line at a time and turns it into a Command:
//
//	""              nothing, drain inbound messages again
//	".anything"     send the quit entry, print the farewell, stop
//	"topic message" send (topic, message) to the outbound queue
//	"malformed"     print the usage notice
//
// A publish line whose topic is "quit" produces the reserved stop entry, so
// the publisher stops instead of sending it. The Loop prints ReservedTopic
// first, then carries on until it finds the outbound queue closed.
//
// Before every read the Loop drains the inbound queue and prints what it
// finds. The read blocks, so messages for the queued session only show up
// after the next line is entered; a blank line is enough to flush them.
//
// All output goes through a Printer, which is also the sink the direct
// session writes to from its delivery goroutine.
package console
