// Package tcp implements the TCP listener, accepted-connection, and
// client endpoints: non-blocking connect with a bounded wait, a queued
// send path with dynamic writability arming, and optional keepalive
// tuning on accepted sockets.
package tcp
