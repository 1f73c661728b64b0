// Package checkpoint persists job progress beside the input file so an
// interrupted conversion resumes at the first cue that was not committed.
//
// A checkpoint is the pair of a partial WAV timeline and a progress marker
// holding the number of committed cues. The pair is only trusted when both
// files are present and consistent; anything else is discarded and the job
// starts over.
package checkpoint
