// Package compensation adjusts flattened paths for the physical tool:
// cut overlap re-crosses the seam of closed paths and blade offset moves
// every vertex to where the blade pivot has to travel.
package compensation
