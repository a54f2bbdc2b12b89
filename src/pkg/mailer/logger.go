package mailer

import (
	"fmt"

	maillog "github.com/wneessen/go-mail/log"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

/*
smtpLogger sends the go-mail protocol log into tintlog.

Client-to-server lines are dimmed so the conversation reads like a transcript.
*/
type smtpLogger struct{}

func (smtpLogger) Debugf(entry maillog.Log) {
	colorize := palette.GrayDim
	if entry.Direction == maillog.DirServerToClient {
		colorize = palette.Gray
	}
	tl.Log(tl.Debug, colorize, "%s", formatEntry(entry))
}

func (smtpLogger) Infof(entry maillog.Log) {
	tl.Log(tl.Verbose, palette.CyanDim, "%s", formatEntry(entry))
}

func (smtpLogger) Warnf(entry maillog.Log) {
	tl.Log(tl.Warning, palette.Yellow, "%s", formatEntry(entry))
}

func (smtpLogger) Errorf(entry maillog.Log) {
	tl.Log(tl.Error, palette.Red, "%s", formatEntry(entry))
}

func formatEntry(entry maillog.Log) string {
	prefix := "smtp S->C"
	if entry.Direction == maillog.DirClientToServer {
		prefix = "smtp C->S"
	}
	return prefix + ": " + fmt.Sprintf(entry.Format, entry.Messages...)
}
