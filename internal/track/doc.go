// Package track associates timestamped 2D detections into persistent
// object tracks.
//
// Responsibilities: per-track trajectory prediction via linear
// regression over a sliding window, distance-gated greedy association,
// and track lifecycle (birth from coherent unmatched pairs,
// confirmation, expiry). Key types: Item, Track, Params, Result.
//
// The package is a pure batch algorithm: it never touches the network,
// the filesystem, or the database. Rendering is delegated to a Renderer
// collaborator that receives read-only snapshots.
package track
