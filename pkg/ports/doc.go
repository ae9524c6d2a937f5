/*
Package ports defines the driven ports (interfaces) for cutline.

These interfaces decouple the conversion pipeline and the device state machine
from concrete serial ports, sockets, job stores and profile libraries.

# Key Interfaces

  - Transport / Conn: opens a byte stream to a device. Writes may be partial and
    reads are best-effort polls.
  - JobStore: persists Job records so that status survives the process.
  - ProfileLoader: resolves DeviceProfiles by name (e.g., from Loam, a YAML file or memory).
  - DistributedLocker: guards a device across several cutline instances.
*/
package ports
