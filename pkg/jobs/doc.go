/*
Package jobs runs conversion jobs on named devices.

A Manager owns one device.Machine per registered device, compiles submitted
graphics through the conversion pipeline and starts them on the target
machine. Submissions to a device that is already running a job are rejected
with domain.ErrDeviceBusy; nothing is queued.

When a ports.DistributedLocker is configured, the device lock is taken at
submission (waiting at most the configured wait) and released when the job
reaches a terminal status, so several cutline instances can share hardware.
*/
package jobs
