// Package cliout renders command results to stdout in the operator's
// chosen format: a one-line human summary for sync sessions, or a
// structured yaml/json dump for scripting.
package cliout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/syncread/internal/types"
)

// Format is the CLI's output encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// DefaultFormat is used when --output names anything unrecognized.
var DefaultFormat Format = FormatYAML

var globalFormat Format = FormatYAML

// SetFormat sets the global output format from the root command's
// --output flag value.
func SetFormat(format string) {
	switch format {
	case "json":
		globalFormat = FormatJSON
	case "yaml":
		globalFormat = FormatYAML
	case "text":
		globalFormat = FormatText
	default:
		globalFormat = DefaultFormat
	}
}

// Write renders data to stdout in the configured format. Structured
// formats (yaml/json) dump data verbatim; text format uses Go's default
// %+v formatting for every value. Use WriteSession for a session's
// compact text line.
func Write(data any) error {
	return WriteTo(os.Stdout, globalFormat, data)
}

// WriteSession renders a sync session to stdout: a compact status line
// in text format, the full record in yaml/json. This is the entry
// point the sync subcommands use, since a session's progress/step/word
// frontier is what an operator driving the pipeline from the CLI
// actually wants to see at a glance.
func WriteSession(sess *types.SyncSession) error {
	if globalFormat == FormatText {
		return writeSessionSummary(os.Stdout, sess)
	}
	return WriteTo(os.Stdout, globalFormat, sess)
}

func writeSessionSummary(w io.Writer, sess *types.SyncSession) error {
	line := fmt.Sprintf("session %s [%s] mode=%s step=%s progress=%.0f%%",
		sess.ID, sess.Status, sess.SyncMode, sess.CurrentStep, sess.Progress)
	if sess.SyncMode == types.SyncModeProgressive {
		line += fmt.Sprintf(" synced_word=%d", sess.SyncedUpToWord)
	}
	if sess.Status == types.StatusError && sess.Error != "" {
		line += fmt.Sprintf(" error=%q", sess.Error)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// WriteTo renders data to w in the given format.
func WriteTo(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	case FormatText:
		_, err := fmt.Fprintf(w, "%+v\n", data)
		return err
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
