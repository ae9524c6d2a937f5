/*
Package domain contains the core domain models of cutline.

It defines the geometry values that flow through the conversion pipeline, the
static description of a device, and the job lifecycle driven by the device
state machine. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Point, Segment, Path: flattened polylines in a single linear unit.
  - Source: parsed vector input (straight and cubic segments) before flattening.
  - Graphic: the ordered set of Paths handed from one pipeline stage to the next.
  - DeviceProfile: working area, dialect and default tool settings of a device.
  - Job: a Graphic bound to a profile and job parameters, carrying a Status.
  - Error: a stage-tagged failure (geometry, compensation, encoding, transport, protocol).
*/
package domain
