package scorekeeper

import "unicode/utf8"

// maxBuffer bounds the running transcript kept between recognized events.
const maxBuffer = 512

// transcriptBuffer holds the text offered to the recognizer. Finals are
// committed and accumulate until a rule fires. A partial is a hypothesis
// for the utterance in progress and replaces the previous one; the final
// for that utterance supersedes it.
type transcriptBuffer struct {
	committed string
	interim   string
	// settled is set when a partial fired a rule. The rest of that
	// utterance, up to and including its final, is dropped so the event is
	// not applied twice.
	settled bool
}

// add records text and returns what should be recognized. ok is false when
// the text belongs to an utterance that already produced an event.
func (b *transcriptBuffer) add(text string, partial bool) (string, bool) {
	if partial {
		if b.settled {
			return "", false
		}
		b.interim = text
		return b.text(), true
	}
	b.interim = ""
	if b.settled {
		b.settled = false
		return "", false
	}
	if text == "" {
		return "", false
	}
	b.committed = trimHead(join(b.committed, text), maxBuffer)
	return b.text(), true
}

// fired clears the buffer after a rule matched.
func (b *transcriptBuffer) fired(partial bool) {
	b.committed, b.interim = "", ""
	b.settled = partial
}

func (b *transcriptBuffer) reset() {
	*b = transcriptBuffer{}
}

func (b *transcriptBuffer) text() string {
	return trimHead(join(b.committed, b.interim), maxBuffer)
}

func join(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + ", " + b
}

// trimHead keeps at most n trailing bytes of s, starting on a rune boundary.
func trimHead(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
