package synth

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	edgeEndpoint = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	edgeToken    = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	edgeOrigin   = "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold"
	edgeFormat   = "audio-24khz-48kbitrate-mono-mp3"

	// WordBoundary offsets arrive in 100ns ticks
	tick = 100 * time.Nanosecond
)

// implements Synthesizer against the Edge read-aloud websocket service
type EdgeSynthesizer struct {
	dialer  *websocket.Dialer
	options Options
}

func NewEdgeSynthesizer(opts Options) *EdgeSynthesizer {
	if opts.Rate == "" {
		opts.Rate = "+0%"
	}
	if opts.Volume == "" {
		opts.Volume = "+0%"
	}
	if opts.Pitch == "" {
		opts.Pitch = "+0Hz"
	}
	return &EdgeSynthesizer{
		dialer:  websocket.DefaultDialer,
		options: opts,
	}
}

// metadata envelope carried on audio.metadata frames
type edgeMetadata struct {
	Metadata []struct {
		Type string `json:"Type"`
		Data struct {
			Offset   int64 `json:"Offset"`
			Duration int64 `json:"Duration"`
			Text     struct {
				Text string `json:"Text"`
			} `json:"text"`
		} `json:"Data"`
	} `json:"Metadata"`
}

// synthesizes one paragraph with the given voice, collecting audio
// frames and WordBoundary events until the service ends the turn
func (s *EdgeSynthesizer) Synthesize(
	ctx context.Context,
	text, voice string,
) (*Result, error) {
	connID := strings.ReplaceAll(uuid.NewString(), "-", "")
	url := fmt.Sprintf(
		"%s?TrustedClientToken=%s&ConnectionId=%s",
		edgeEndpoint, edgeToken, connID,
	)

	header := http.Header{}
	header.Set("Origin", edgeOrigin)
	header.Set("Pragma", "no-cache")
	header.Set("Cache-Control", "no-cache")

	conn, _, err := s.dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to speech service: %w", err)
	}
	defer conn.Close()

	// unblock reads when the caller gives up
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := s.sendConfig(conn); err != nil {
		return nil, err
	}
	if err := s.sendSSML(conn, connID, text, voice); err != nil {
		return nil, err
	}

	result, err := s.collect(conn)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if err := checkResult(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *EdgeSynthesizer) sendConfig(conn *websocket.Conn) error {
	msg := "X-Timestamp:" + edgeTimestamp() + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" +
		`{"context":{"synthesis":{"audio":{"metadataoptions":` +
		`{"sentenceBoundaryEnabled":false,"wordBoundaryEnabled":true},` +
		`"outputFormat":"` + edgeFormat + `"}}}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send speech config: %w", err)
	}
	return nil
}

func (s *EdgeSynthesizer) sendSSML(
	conn *websocket.Conn,
	requestID, text, voice string,
) error {
	ssml := fmt.Sprintf(
		"<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>"+
			"<voice name='%s'><prosody pitch='%s' rate='%s' volume='%s'>%s</prosody></voice></speak>",
		voice, s.options.Pitch, s.options.Rate, s.options.Volume,
		html.EscapeString(text),
	)
	msg := "X-RequestId:" + requestID + "\r\n" +
		"X-Timestamp:" + edgeTimestamp() + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"Path:ssml\r\n\r\n" + ssml
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send ssml: %w", err)
	}
	return nil
}

func (s *EdgeSynthesizer) collect(conn *websocket.Conn) (*Result, error) {
	result := &Result{}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("speech service read failed: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			path, body := splitFrame(string(data))
			switch path {
			case "audio.metadata":
				events, err := parseBoundaries(body)
				if err != nil {
					return nil, err
				}
				result.Events = append(result.Events, events...)
			case "turn.end":
				if n := len(result.Events); n > 0 {
					result.Duration = result.Events[n-1].End
				}
				return result, nil
			}

		case websocket.BinaryMessage:
			audio, err := parseAudioFrame(data)
			if err != nil {
				return nil, err
			}
			result.Audio = append(result.Audio, audio...)
		}
	}
}

// splitFrame separates a text frame into its Path header value and body
func splitFrame(frame string) (path, body string) {
	head := frame
	if idx := strings.Index(frame, "\r\n\r\n"); idx >= 0 {
		head = frame[:idx]
		body = frame[idx+4:]
	}
	for _, line := range strings.Split(head, "\r\n") {
		if v, ok := strings.CutPrefix(line, "Path:"); ok {
			path = strings.TrimSpace(v)
		}
	}
	return path, body
}

func parseBoundaries(body string) ([]WordEvent, error) {
	var meta edgeMetadata
	if err := json.Unmarshal([]byte(body), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse boundary metadata: %w", err)
	}

	var events []WordEvent
	for _, m := range meta.Metadata {
		if m.Type != "WordBoundary" {
			continue
		}
		start := time.Duration(m.Data.Offset) * tick
		events = append(events, WordEvent{
			Text:  m.Data.Text.Text,
			Start: start,
			End:   start + time.Duration(m.Data.Duration)*tick,
		})
	}
	return events, nil
}

// binary frames carry a big-endian header length followed by the
// header text and the raw audio payload
func parseAudioFrame(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("binary frame too short: %d bytes", len(data))
	}
	headerLen := int(binary.BigEndian.Uint16(data[:2]))
	if 2+headerLen > len(data) {
		return nil, fmt.Errorf("binary frame header overruns payload")
	}
	return data[2+headerLen:], nil
}

func edgeTimestamp() string {
	return time.Now().UTC().Format("Mon Jan 02 2006 15:04:05") +
		" GMT+0000 (Coordinated Universal Time)"
}
