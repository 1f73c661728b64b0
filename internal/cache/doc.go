// Package cache keeps synthesized speech so re-running a job after a failure
// does not request (and bill) the same cue twice. It has an in-memory LRU
// tier and a persistent zstd-compressed disk tier.
package cache
