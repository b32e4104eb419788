package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/umeshrajanna/deepship-api/pkg/logger"
)

// Defaults for PCM16 mono audio
const (
	DefaultSampleRate = 24000
	DefaultChunkMS    = 100
)

// ServerError is an error event sent by the backend
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "voice server error: " + e.Message
}

// Options configure a Session
type Options struct {
	SampleRate int
	ChunkMS    int
	// OnEvent observes every inbound event after it is applied
	OnEvent func(Event)
}

// Result summarizes a session
type Result struct {
	ConversationID string
	UserTurns      []string
	AssistantTurns []string
	Searches       []string
	AudioBytes     int
}

// ChunkBytes is the size of one PCM16 mono chunk of chunkMS milliseconds
func ChunkBytes(sampleRate, chunkMS int) int {
	n := sampleRate * chunkMS / 1000 * 2
	if n < 2 {
		return 2
	}
	return n
}

// Session drives one voice exchange over a Conn
type Session struct {
	conn *Conn
	opts Options
	log  *logger.Logger
}

func NewSession(conn *Conn, opts Options) *Session {
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.ChunkMS <= 0 {
		opts.ChunkMS = DefaultChunkMS
	}
	return &Session{conn: conn, opts: opts, log: logger.WithComponent("voice")}
}

// Run streams input at real-time pace and writes received audio to output.
// Either may be nil. It returns once the input is sent and the server has
// finished responding, when the server closes the socket, or when ctx ends.
// The caller closes the Conn.
func (s *Session) Run(ctx context.Context, input io.Reader, output io.Writer) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan Event)
	readErr := make(chan error, 1)
	go func() {
		for {
			e, err := s.conn.Next()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case events <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	var sendDone chan error
	if input != nil {
		sendDone = make(chan error, 1)
		go func() { sendDone <- s.stream(ctx, input) }()
	}

	res := &Result{}
	var (
		inputSent bool
		responded bool
		partial   strings.Builder
	)
	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()

		case err := <-sendDone:
			if err != nil {
				return res, err
			}
			sendDone = nil
			inputSent = true
			s.log.Debug("audio input sent")

		case err := <-readErr:
			if IsNormalClose(err) {
				return res, nil
			}
			return res, fmt.Errorf("voice socket closed: %w", err)

		case e := <-events:
			switch e.Type {
			case TypeAudioDelta:
				data, err := e.AudioBytes()
				if err != nil {
					s.log.Warn("dropping audio delta", "error", err)
					break
				}
				res.AudioBytes += len(data)
				if output != nil {
					if _, err := output.Write(data); err != nil {
						return res, fmt.Errorf("failed to write audio output: %w", err)
					}
				}
			case TypeTranscriptDelta:
				partial.WriteString(e.Delta)
			case TypeTranscriptDone:
				text := e.Transcript
				if text == "" {
					text = partial.String()
				}
				partial.Reset()
				res.AssistantTurns = append(res.AssistantTurns, text)
			case TypeInputTranscript:
				res.UserTurns = append(res.UserTurns, e.Transcript)
			case TypeConversation:
				res.ConversationID = e.ConversationID
			case TypeSearchResults:
				res.Searches = append(res.Searches, e.Query)
			case TypeSpeechStarted:
				responded = false
			case TypeResponseDone:
				responded = true
			case TypeError:
				return res, &ServerError{Message: e.ErrorMessage()}
			default:
				s.log.Debug("ignoring voice event", "type", e.Type)
			}
			if s.opts.OnEvent != nil {
				s.opts.OnEvent(e)
			}
		}

		if inputSent && responded {
			return res, nil
		}
	}
}

// stream announces speech, then sends input in chunks paced to the audio's
// own duration
func (s *Session) stream(ctx context.Context, input io.Reader) error {
	interval := time.Duration(s.opts.ChunkMS) * time.Millisecond
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	if err := s.conn.Send(Event{Type: TypeSpeechStarted}); err != nil {
		return err
	}

	buf := make([]byte, ChunkBytes(s.opts.SampleRate, s.opts.ChunkMS))
	chunks := 0
	for {
		n, err := io.ReadFull(input, buf)
		if n > 0 {
			if werr := limiter.Wait(ctx); werr != nil {
				return werr
			}
			if serr := s.conn.Send(AppendAudio(buf[:n])); serr != nil {
				return serr
			}
			chunks++
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.log.Debug("audio input exhausted", "chunks", chunks)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read audio input: %w", err)
		}
	}
}
