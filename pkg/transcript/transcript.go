// Package transcript owns the text-assembly rules for a conversation: the
// seed preamble, how a human turn is appended, and how a generated bot turn
// is cut at its end marker and committed.
//
// A Transcript is plain text. Turns are delimited by the configuration's role
// markers; user text is never escaped, so a message containing a marker is
// indistinguishable from a real turn boundary.
package transcript

import (
	"strings"

	"github.com/papercomputeco/leonia/pkg/modelconf"
)

// Transcript is the accumulated, role-marked dialogue text.
type Transcript string

// Role attributes a Turn to a speaker.
type Role string

const (
	RoleHuman Role = "human"
	RoleBot   Role = "bot"
)

// Turn is one contiguous span of transcript text.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// String returns the transcript text.
func (t Transcript) String() string {
	return string(t)
}

// AppendHumanTurn appends a human turn and opens the bot turn that answers it.
// The result is the prompt sent to the completion service.
func AppendHumanTurn(t Transcript, conf modelconf.Configuration, msg string) Transcript {
	var b strings.Builder
	b.Grow(len(t) + len(conf.TokenHuman) + len(msg) + len(conf.TokenBot))
	b.WriteString(string(t))
	b.WriteString(conf.TokenHuman)
	b.WriteString(msg)
	b.WriteString(conf.TokenBot)
	return Transcript(b.String())
}

// CommitBotTurn appends raw, cut at TurnBoundary, to prompt.
// prompt must already end with the bot marker (see AppendHumanTurn); the
// result ends right after the completed bot turn, ready for the next human
// marker.
func CommitBotTurn(prompt Transcript, conf modelconf.Configuration, raw string) Transcript {
	text, _ := TruncateAtEnd(raw, conf.TokenEnd, conf.TokenHuman)
	return prompt + Transcript(text)
}

// Split recovers the preamble and the sequence of turns from t. The preamble
// is the text before the first human marker.
func Split(t Transcript, conf modelconf.Configuration) (string, []Turn) {
	s := string(t)
	first := strings.Index(s, conf.TokenHuman)
	if first < 0 {
		return s, nil
	}

	preamble := s[:first]
	rest := s[first:]

	var turns []Turn
	for rest != "" {
		var role Role
		switch {
		case strings.HasPrefix(rest, conf.TokenHuman):
			role = RoleHuman
			rest = rest[len(conf.TokenHuman):]
		case strings.HasPrefix(rest, conf.TokenBot):
			role = RoleBot
			rest = rest[len(conf.TokenBot):]
		}

		next := nextMarker(rest, conf)
		text := rest
		if next >= 0 {
			text = rest[:next]
			rest = rest[next:]
		} else {
			rest = ""
		}

		if role == "" {
			// Only reachable if a marker is a prefix of the other; attach the
			// text to the previous turn.
			if len(turns) > 0 {
				turns[len(turns)-1].Text += text
			}
			continue
		}

		text, _ = TruncateAtEnd(text, conf.TokenEnd)
		turns = append(turns, Turn{Role: role, Text: text})
	}

	return preamble, turns
}

func nextMarker(s string, conf modelconf.Configuration) int {
	h := strings.Index(s, conf.TokenHuman)
	b := strings.Index(s, conf.TokenBot)
	switch {
	case h < 0:
		return b
	case b < 0:
		return h
	case h < b:
		return h
	default:
		return b
	}
}
