/*
Package cutline converts vector graphics into command streams for pen
plotters and vinyl or knife cutters, and drives those streams to devices.

# Pipeline

A conversion runs pure, reentrant stages in a fixed order:

	Source -> flatten -> transform -> tile -> cut overlap -> blade offset
	       -> travel order -> encode (hpgl, dmpl, gpgl, camm, debug)

Batch conversion returns the encoded bytes. Live plotting hands the program
to a device state machine that streams one command group at a time over a
Transport (serial port, TCP socket, file or memory) and supports pause,
resume and cancel at group boundaries.

# Usage

	eng, err := cutline.New(cutline.WithProfiles(loader))
	if err != nil {
		log.Fatal(err)
	}

	profile, _ := eng.Profile(ctx, "a4")
	out, err := eng.Convert(ctx, src, profile, domain.DefaultParams())

For live jobs register a device and submit:

	err = eng.AddDevice("desk", "a4", stream.New(), ports.TransportConfig{Address: "/dev/ttyUSB0"})
	job, err := eng.Plot(ctx, "desk", src, params)
	job, err = eng.Wait(ctx, job.ID)

# Architecture

The core lives in pkg/geometry, pkg/compensation, pkg/travel and
pkg/protocol. pkg/device owns the per-device state machine and pkg/jobs
multiplexes devices. Storage, transports and front doors (HTTP, MCP, CLI)
are adapters behind the interfaces in pkg/ports.
*/
package cutline
