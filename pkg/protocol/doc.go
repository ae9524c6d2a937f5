/*
Package protocol encodes device-agnostic pen motion into device command
dialects.

An Encoder is stateless: every method returns the bytes for one command and
takes absolute device coordinates. Capabilities a dialect lacks encode to an
empty slice. Dialects are looked up by id:

	hpgl   IN; PU/PD absolute moves, VS, FS, SP
	dmpl   H, M/D moves, ! velocity, * force
	gpgl   " ;:H A L0 ", U/D moves, EC pen, V velocity, BP force
	camm   IN; PU/PD moves, FS, VS
	debug  logs every call, emits nothing

Encode turns a Graphic into a Program: an init block followed by one command
group per path, the unit the device state machine transmits atomically.
*/
package protocol
