package meta

import "github.com/ccxstream/xbmsp/pkg/handshake"

// Following variables are filled in by main.go
var (
	Version   string
	GitCommit string
	BuildDate string
)

type VersionOutput struct {
	Version   string
	GitCommit string
	BuildDate string

	ProtocolVersion string
	Banner          string
}

func GetVersion() *VersionOutput {
	return &VersionOutput{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,

		ProtocolVersion: handshake.ProtocolVersion,
		Banner:          handshake.DefaultBanner,
	}
}
