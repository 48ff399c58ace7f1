package session

import "strings"

// CommandLabel prefixes every command recorded in the session transcript.
const CommandLabel = "Session Command: "

// Output aggregates command output in two buffers: the output of the most
// recent command, and the append-only transcript of the whole session.
//
// Output is not safe for concurrent use; Session guards it with its own mutex.
type Output struct {
	last       string
	transcript strings.Builder
}

// Last returns the output of the most recently completed command, or "" if
// none has run or it was cleared.
func (o *Output) Last() string {
	return o.last
}

// Transcript returns every recorded command label and output, in order.
func (o *Output) Transcript() string {
	return o.transcript.String()
}

// RecordCommand appends the labeled command line to the transcript.
func (o *Output) RecordCommand(command string) {
	o.transcript.WriteString(CommandLabel)
	o.transcript.WriteString(command)
	o.transcript.WriteByte('\n')
}

// Append adds command output to the transcript without touching Last.
func (o *Output) Append(text string) {
	o.transcript.WriteString(text)
}

// SetLast replaces the last output and appends it to the transcript.
func (o *Output) SetLast(text string) {
	o.last = text
	o.Append(text)
}

// ClearLast empties the last output. The transcript is unaffected.
func (o *Output) ClearLast() {
	o.last = ""
}
