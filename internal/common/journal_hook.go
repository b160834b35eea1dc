package common

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/sirupsen/logrus"
)

// JournalHook forwards logrus entries to the systemd journal. Entry fields
// become journal fields, upper-cased with anything outside [A-Z0-9_]
// replaced by an underscore.
type JournalHook struct {
	// Identifier is sent as SYSLOG_IDENTIFIER when set.
	Identifier string
}

var journalPriorities = map[logrus.Level]journal.Priority{
	logrus.TraceLevel: journal.PriDebug,
	logrus.DebugLevel: journal.PriDebug,
	logrus.InfoLevel:  journal.PriInfo,
	logrus.WarnLevel:  journal.PriWarning,
	logrus.ErrorLevel: journal.PriErr,
	logrus.FatalLevel: journal.PriCrit,
	logrus.PanicLevel: journal.PriEmerg,
}

// JournalEnabled reports whether a journal socket is reachable.
func JournalEnabled() bool {
	return journal.Enabled()
}

func journalKey(key string) string {
	key = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return unicode.ToUpper(r)
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	// fields starting with an underscore are reserved for journald
	return strings.TrimLeft(key, "_")
}

func journalVars(identifier string, data logrus.Fields) map[string]string {
	vars := make(map[string]string, len(data)+1)
	for k, v := range data {
		key := journalKey(k)
		if key == "" {
			continue
		}
		vars[key] = fmt.Sprint(v)
	}
	if identifier != "" {
		vars["SYSLOG_IDENTIFIER"] = identifier
	}
	return vars
}

func (hook *JournalHook) Fire(entry *logrus.Entry) error {
	return journal.Send(entry.Message, journalPriorities[entry.Level], journalVars(hook.Identifier, entry.Data))
}

func (hook *JournalHook) Levels() []logrus.Level {
	return logrus.AllLevels
}
