package packet

import "fmt"

// Kind is the one-byte tag following the packet length.
type Kind uint8

const (
	KindOK           Kind = 1
	KindError        Kind = 2
	KindHandle       Kind = 3
	KindFileData     Kind = 4
	KindFileContents Kind = 5
	KindAuthContinue Kind = 6

	KindNull         Kind = 10
	KindSetCwd       Kind = 11
	KindOpenDir      Kind = 12
	KindReadDir      Kind = 13
	KindStat         Kind = 14
	KindOpenFile     Kind = 15
	KindReadFile     Kind = 16
	KindSeek         Kind = 17
	KindClose        Kind = 18
	KindCloseAll     Kind = 19
	KindSetOption    Kind = 20
	KindAuthInit     Kind = 21
	KindAuthenticate Kind = 22
	KindUpCwd        Kind = 23

	KindDiscoveryQuery Kind = 90
	KindDiscoveryReply Kind = 91
)

var kindNames = map[Kind]string{
	KindOK:             "ok",
	KindError:          "error",
	KindHandle:         "handle",
	KindFileData:       "file-data",
	KindFileContents:   "file-contents",
	KindAuthContinue:   "auth-continue",
	KindNull:           "null",
	KindSetCwd:         "set-cwd",
	KindOpenDir:        "open-dir",
	KindReadDir:        "read-dir",
	KindStat:           "stat",
	KindOpenFile:       "open-file",
	KindReadFile:       "read-file",
	KindSeek:           "seek",
	KindClose:          "close",
	KindCloseAll:       "close-all",
	KindSetOption:      "set-option",
	KindAuthInit:       "auth-init",
	KindAuthenticate:   "authenticate",
	KindUpCwd:          "up-cwd",
	KindDiscoveryQuery: "discovery-query",
	KindDiscoveryReply: "discovery-reply",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ID correlates a request with its reply.
type ID uint32

// Handle is the server-issued identifier of an open file or listing.
type Handle uint32

// HeaderSize is the kind tag plus the request id, the smallest valid body.
const HeaderSize = 1 + 4

type ErrorCode uint8

const (
	ErrorOK ErrorCode = iota
	ErrorFailure
	ErrorUnsupported
	ErrorNoSuchFile
	ErrorInvalidFile
	ErrorInvalidHandle
	ErrorOpenFailed
	ErrorTooManyOpenFiles
	ErrorReadTooLong
	ErrorIllegalSeek
	ErrorOptionReadOnly
	ErrorInvalidOptionValue
	ErrorAuthenticationNeeded
	ErrorAuthenticationFailed
)

var errorCodeNames = []string{
	ErrorOK:                   "ok",
	ErrorFailure:              "failure",
	ErrorUnsupported:          "unsupported",
	ErrorNoSuchFile:           "no-such-file",
	ErrorInvalidFile:          "invalid-file",
	ErrorInvalidHandle:        "invalid-handle",
	ErrorOpenFailed:           "open-failed",
	ErrorTooManyOpenFiles:     "too-many-open-files",
	ErrorReadTooLong:          "read-too-long",
	ErrorIllegalSeek:          "illegal-seek",
	ErrorOptionReadOnly:       "option-read-only",
	ErrorInvalidOptionValue:   "invalid-option-value",
	ErrorAuthenticationNeeded: "authentication-needed",
	ErrorAuthenticationFailed: "authentication-failed",
}

func (e ErrorCode) String() string {
	if int(e) < len(errorCodeNames) {
		return errorCodeNames[e]
	}
	return fmt.Sprintf("error(%d)", uint8(e))
}

// SeekOrigin selects how a seek amount is applied.
type SeekOrigin uint8

const (
	SeekRewind SeekOrigin = iota
	SeekEnd
	SeekForward
	SeekBackward
)

func (o SeekOrigin) String() string {
	switch o {
	case SeekRewind:
		return "rewind"
	case SeekEnd:
		return "end"
	case SeekForward:
		return "forward"
	case SeekBackward:
		return "backward"
	}
	return fmt.Sprintf("origin(%d)", uint8(o))
}
