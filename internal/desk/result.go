package desk

import (
	"strings"
	"time"

	"github.com/max00189xp/homework/internal/feedback"
)

const (
	noFourCharText = "暫無評語"
	noFeedbackText = "尚無文字回饋"
	resultDateFmt  = "2006/1/2"
)

// Result is the display state of the last successful query.
type Result struct {
	Name     string
	Time     string
	FourChar string
	Feedback string
	// SpeechText is the raw feedback text; empty when the backend sent none,
	// even though Feedback then shows a placeholder.
	SpeechText string
}

func newResult(resp feedback.Response, queried string, now time.Time) Result {
	r := Result{
		Name:       strings.TrimSpace(resp.Name),
		Time:       strings.TrimSpace(resp.Time),
		FourChar:   strings.TrimSpace(resp.FourChar),
		Feedback:   strings.TrimSpace(resp.Feedback),
		SpeechText: strings.TrimSpace(resp.Feedback),
	}
	if r.Name == "" {
		r.Name = queried
	}
	if r.Time == "" {
		r.Time = now.Format(resultDateFmt)
	}
	if r.FourChar == "" {
		r.FourChar = noFourCharText
	}
	if r.Feedback == "" {
		r.Feedback = noFeedbackText
	}
	return r
}
