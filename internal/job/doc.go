// Package job drives a subtitle-to-audio conversion: it loads the
// checkpoint, synthesizes every remaining cue, lays the clips onto the
// timeline, commits after each cue and finally writes the output.
//
// Progress is published as Events. A Job runs once.
package job
