/*
Package device drives an encoded Program through a ports.Transport.

A Machine owns one device connection and runs at most one job at a time:

	idle -> connecting -> initializing -> plotting <-> paused -> completed
	                 \             \            \         \
	                  +-------------+------------+---------+--> cancelled | failed

Groups are written one at a time. After a group is fully written the
recorded position moves to the group's last point, so Position always
reflects the last fully transmitted command. Pause and Cancel are
cooperative and take effect at the next group boundary. A cancelled or
failed job closes the connection; a completed one leaves it open for the
next job.
*/
package device
