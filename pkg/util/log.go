package util

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

const (
	LogComponentField = "component"

	DefaultComponent = "xbmsp"
)

// Formatter prefixes every line with its component. Entries that carry
// their own component field are printed as bare messages.
type Formatter struct {
	*logrus.TextFormatter

	Component string
}

func SetUpLogger(out io.Writer, level, component string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	if component == "" {
		component = DefaultComponent
	}
	logrus.SetOutput(out)
	logrus.SetLevel(lvl)
	logrus.SetFormatter(Formatter{
		TextFormatter: &logrus.TextFormatter{
			DisableColors: true,
		},
		Component: component,
	})
	return nil
}

func (l Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	logMsg := &bytes.Buffer{}
	component, ok := entry.Data[LogComponentField]
	if !ok {
		component = l.Component
	}
	name, ok := component.(string)
	if !ok {
		return nil, errors.New("field component must be a string")
	}
	logMsg.WriteString("[" + name + "] ")
	if name == l.Component {
		msg, err := l.TextFormatter.Format(entry)
		if err != nil {
			return nil, err
		}
		logMsg.Write(msg)
	} else {
		logMsg.WriteString(entry.Message)
		logMsg.WriteString("\n")
	}

	return logMsg.Bytes(), nil
}
