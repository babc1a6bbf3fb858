package at

import (
	"bufio"
	"bytes"
	"slices"
	"strings"
)

// Splitter is used for tokenizing AT command modem responses. It uses
// the signature of bufio.SplitFunc so it can be directly used with bufio.Scanner.
//
// It splits the input by CRLF line endings and also
// recognizes the data input prompt ("> ").
//
// Important: This splitter assumes "No Echo" mode (ATE0). If echo is enabled,
// command echoes are returned as ordinary data tokens preceding the actual
// response.
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// 1. Match data prompt
	if bytes.HasPrefix(data, []byte(Prompt)) {
		return len(Prompt), data[0:len(Prompt)], nil
	}

	// 2. Match standard line ending with CRLF
	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		return i + len(CRLF), data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Classify identifies the nature of the modem output.
//
// Any line carrying a standard ("+") or vendor ("%") prefix is reported as
// TypeURC. Whether such a line is actually unsolicited depends on the command
// in flight, see Answers.
func Classify(line string) ResponseType {
	if line == Prompt {
		return TypePrompt
	}

	// Direct matches for final results
	switch line {
	case OK, ERROR, NoCarrier, NoDialtone, Busy, NoAnswer, SendOK, SendFail:
		return TypeFinal
	}

	// Prefix matches
	switch {
	case strings.HasPrefix(line, CmeError), strings.HasPrefix(line, CmsError):
		return TypeFinal
	case line == UrcQuectelReady:
		return TypeURC
	case strings.HasPrefix(line, UrcStandardPrefix), strings.HasPrefix(line, UrcVendorPrefix):
		if strings.Contains(line, ":") {
			return TypeURC
		}
		return TypeData
	default:
		return TypeData
	}
}

// Prefix returns the response prefix of line including the colon
// ("+CEREG:" for "+CEREG: 2,1"), or "" when the line has none.
func Prefix(line string) string {
	if !strings.HasPrefix(line, UrcStandardPrefix) && !strings.HasPrefix(line, UrcVendorPrefix) {
		return ""
	}
	i := strings.Index(line, ":")
	if i < 0 {
		return ""
	}
	return line[:i+1]
}

// notifications are prefixes the modem emits unsolicited as well as in
// answer to a query.
var notifications = []string{
	UrcRegistration,
	UrcNiddData,
	UrcConnection,
	UrcAltairBoot,
	UrcAltairSocket,
	UrcQuectelSocket,
}

// IsNotification reports whether line carries a prefix the modem also
// emits unsolicited.
func IsNotification(line string) bool {
	p := Prefix(line)
	return p != "" && slices.Contains(notifications, p)
}

// IsWrite reports whether command sets a value (AT+CEREG=5). Reads
// (AT+CEREG?) and tests (AT+CEREG=?) are not writes.
func IsWrite(command string) bool {
	i := strings.Index(command, "=")
	return i >= 0 && !strings.Contains(command[i:], "?")
}

// Answers reports whether line is the information response of command,
// i.e. the line prefix names the command ("+CEREG: 5,1" answers "AT+CEREG?").
// Writes are never answered by notification lines: "+CEREG: 2" arriving
// during AT+CEREG=5 is an event.
func Answers(command, line string) bool {
	p := strings.TrimSuffix(Prefix(line), ":")
	if p == "" {
		return false
	}
	if !strings.Contains(strings.ToUpper(command), strings.ToUpper(p)) {
		return false
	}
	return !IsWrite(command) || !IsNotification(line)
}

// Fields strips prefix from response, splits the remainder on commas and
// removes surrounding whitespace and quote characters from every field.
// Empty fields are kept so positional indices stay stable.
func Fields(response, prefix string) []string {
	rest := strings.TrimSpace(response)
	if prefix != "" {
		rest = strings.TrimSpace(strings.TrimPrefix(rest, prefix))
	}
	if rest == "" {
		return nil
	}
	parts := strings.Split(rest, ",")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.TrimSpace(p), `"`, "")
	}
	return parts
}
