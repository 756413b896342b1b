package protocol

import (
	"time"

	"github.com/loqalabs/courtcall/internal/match"
	"github.com/loqalabs/courtcall/internal/score"
)

// AudioFrame represents PCM audio streamed from a court microphone.
type AudioFrame struct {
	Court      string `json:"court"`
	Sequence   int    `json:"sequence"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	PCM        []byte `json:"pcm"`
	Final      bool   `json:"final"`
}

// Transcript represents STT output broadcast on the bus.
type Transcript struct {
	Court      string    `json:"court"`
	Text       string    `json:"text"`
	Partial    bool      `json:"partial"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence,omitempty"`
}

// Match command actions.
const (
	ActionStart = "start"
	ActionEnd   = "end"
	ActionClear = "clear"
	ActionPoint = "point"
	ActionState = "state"
)

// MatchCommand is a request sent by a scoreboard UI.
type MatchCommand struct {
	Action string     `json:"action"`
	Sport  string     `json:"sport,omitempty"`
	TeamA  string     `json:"team_a,omitempty"`
	TeamB  string     `json:"team_b,omitempty"`
	Side   score.Side `json:"side,omitempty"`
}

// MatchReply answers a MatchCommand. State is nil when no match is active.
type MatchReply struct {
	OK       bool              `json:"ok"`
	Error    string            `json:"error,omitempty"`
	State    *score.ScoreState `json:"state,omitempty"`
	Display  string            `json:"display,omitempty"`
	Archived *match.Match      `json:"archived,omitempty"`
}

// ScoreUpdate is published after every applied score event.
type ScoreUpdate struct {
	Court      string           `json:"court"`
	State      score.ScoreState `json:"state"`
	Display    string           `json:"display"`
	Rule       string           `json:"rule,omitempty"`
	Transcript string           `json:"transcript,omitempty"`
	GameWinner score.Side       `json:"game_winner"`
	Timestamp  time.Time        `json:"timestamp"`
}

// MatchArchived is published when a match is ended.
type MatchArchived struct {
	Court string      `json:"court"`
	Match match.Match `json:"match"`
}

// TTSRequest asks the speech service to announce text.
type TTSRequest struct {
	Court  string  `json:"court"`
	Text   string  `json:"text"`
	Voice  string  `json:"voice"`
	Volume float64 `json:"volume"`
}

// AudioChunk carries synthesized PCM for a court speaker.
type AudioChunk struct {
	Court      string  `json:"court"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Sequence   int     `json:"sequence"`
	Volume     float64 `json:"volume"`
	PCM        []byte  `json:"pcm"`
	Final      bool    `json:"final"`
}

// TTSStatus marks the end of an announcement.
type TTSStatus struct {
	Court     string    `json:"court"`
	Completed bool      `json:"completed"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectAudioFramePrefix  = "audio.frame"
	SubjectTranscriptPartial = "stt.text.partial"
	SubjectTranscriptFinal   = "stt.text.final"
	SubjectMatchCommand      = "match.command"
	SubjectScoreUpdate       = "score.update"
	SubjectMatchArchived     = "match.archived"
	SubjectTTSRequest        = "tts.request"
	SubjectTTSAudio          = "tts.audio.out"
	SubjectTTSDone           = "tts.done"
)

// AudioFrameSubject is the subject a court microphone publishes on.
func AudioFrameSubject(court string) string {
	return SubjectAudioFramePrefix + "." + court
}
