package engines

import (
	"context"
	"fmt"
	"net/http"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/srtaudio/internal/tts"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GoogleCloud synthesizes speech with Google Cloud Text-to-Speech, using the
// native speaking rate instead of SSML.
type GoogleCloud struct {
	cfg    GoogleConfig
	client *texttospeech.Client
}

// GoogleConfig holds configuration for the Google Cloud backend.
type GoogleConfig struct {
	// LanguageCode such as "en-US" (defaults to "en-US")
	LanguageCode string

	// VoiceName such as "en-US-Neural2-C" (optional)
	VoiceName string

	// CredentialsFile is a service account key. Empty uses application
	// default credentials.
	CredentialsFile string

	// Timeout per call (defaults to tts.DefaultTimeout, minimum tts.MinNetworkTimeout)
	Timeout time.Duration
}

// googleMaxRate is the API's upper bound for SpeakingRate.
const googleMaxRate = 4.0

// NewGoogleCloud dials the Text-to-Speech API.
func NewGoogleCloud(ctx context.Context, cfg GoogleConfig) (*GoogleCloud, error) {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	timeout, err := networkTimeout(cfg.Timeout)
	if err != nil {
		return nil, err
	}
	cfg.Timeout = timeout

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, tts.NewConfigError("google.credentials_file", "unable to create client: %v", err)
	}

	return &GoogleCloud{cfg: cfg, client: client}, nil
}

// Name implements tts.Synthesizer.
func (e *GoogleCloud) Name() string {
	return fmt.Sprintf("google:%s/%s", e.cfg.LanguageCode, e.cfg.VoiceName)
}

// Synthesize returns MP3 audio spoken at req.Speed.
func (e *GoogleCloud) Synthesize(ctx context.Context, req tts.Request) (*tts.Clip, error) {
	if req.Text == "" {
		return nil, tts.NewBackendError("google", "empty request", tts.ErrEmptyText)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	started := time.Now()
	resp, err := e.client.SynthesizeSpeech(ctx, e.request(req))
	if err != nil {
		return nil, googleError(err)
	}
	log.Debug("google synthesis", "bytes", len(resp.GetAudioContent()), "took", time.Since(started))

	return &tts.Clip{Audio: resp.GetAudioContent(), Format: tts.FormatMP3}, nil
}

func (e *GoogleCloud) request(req tts.Request) *texttospeechpb.SynthesizeSpeechRequest {
	rate := req.Speed
	if rate <= 0 {
		rate = 1
	}
	if rate > googleMaxRate {
		rate = googleMaxRate
	}

	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: req.Text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: e.cfg.LanguageCode,
			Name:         e.cfg.VoiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  rate,
		},
	}
}

// googleError maps gRPC status codes onto HTTP-like statuses so retry
// decisions work the same across backends.
func googleError(err error) error {
	st, _ := status.FromError(err)
	code := http.StatusBadGateway
	switch st.Code() {
	case codes.ResourceExhausted:
		code = http.StatusTooManyRequests
	case codes.Unavailable:
		code = http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		code = http.StatusGatewayTimeout
	case codes.InvalidArgument:
		code = http.StatusBadRequest
	case codes.Unauthenticated:
		code = http.StatusUnauthorized
	case codes.PermissionDenied:
		code = http.StatusForbidden
	case codes.Canceled:
		code = 0
	}
	return &tts.BackendError{
		Backend: "google",
		Status:  code,
		Message: st.Message(),
		Cause:   err,
	}
}

// Close releases the gRPC connection.
func (e *GoogleCloud) Close() error {
	return e.client.Close()
}

var _ tts.Synthesizer = (*GoogleCloud)(nil)
