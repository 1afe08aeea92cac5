// Package probe waits for services to reach a ready state.
//
// A Probe keeps one Checker per service name. Await polls it at a fixed
// interval until it reports ready, reports a permanent failure, or the
// timeout elapses. Checkers only read: a port, a device node, a log file,
// the process table, an NTP server or a network link.
package probe
