/*
Package geometry turns parsed vector input into flattened polylines and
positions them on the device: curve flattening, affine transforms
(scale, mirror, rotation, translation) and multi-copy tiling.

Every function is pure. Inputs are never modified; each call returns a new
Graphic that shares no Path storage with its argument.
*/
package geometry
