// Package engines contains the speech backends: gTTS (free), ElevenLabs
// (premium), Piper (local) and Google Cloud Text-to-Speech. New wires the
// selected backend together with rate limiting, retries and caching.
package engines
