// Package stream implements ports.Transport over real byte streams: serial
// ports (github.com/tarm/serial), device or spool files, and raw TCP sockets
// such as network plotter ports.
//
// Reads are served from a background reader so that Conn.Read never blocks.
package stream
