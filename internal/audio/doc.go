// Package audio decodes synthesized speech, lays it onto a 44.1 kHz mono
// timeline, compresses clips that overrun their cue, and plays the result
// with oto/v3.
package audio
