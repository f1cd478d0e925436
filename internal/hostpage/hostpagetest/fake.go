// Package hostpagetest provides a scripted in-memory chat surface.
package hostpagetest

import (
	"sync"

	"github.com/januspriv/janus/internal/hostpage"
)

// Message is one assistant message on the fake surface.
type Message struct {
	ID   string
	Text string
}

// Fake is an Adapter backed by plain fields. It is safe for concurrent use so
// tests can stream text from another goroutine.
type Fake struct {
	mu sync.Mutex

	URL      string
	Compose  string
	Messages []Message

	// Error injection. A non-nil value makes the corresponding call fail.
	ComposeErr error
	SubmitErr  error

	// SubmitCount counts Submit calls; Submitted records compose text at each.
	SubmitCount int
	Submitted   []string
}

var _ hostpage.Adapter = (*Fake)(nil)

func (f *Fake) Address() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.URL, nil
}

func (f *Fake) ComposeText() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ComposeErr != nil {
		return "", f.ComposeErr
	}
	return f.Compose, nil
}

func (f *Fake) SetComposeText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ComposeErr != nil {
		return f.ComposeErr
	}
	f.Compose = text
	return nil
}

func (f *Fake) Submit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubmitErr != nil {
		return f.SubmitErr
	}
	f.SubmitCount++
	f.Submitted = append(f.Submitted, f.Compose)
	f.Compose = ""
	return nil
}

func (f *Fake) LatestAssistantMessage() (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Messages) == 0 {
		return "", "", hostpage.ErrNoMessages
	}
	m := f.Messages[len(f.Messages)-1]
	return m.ID, m.Text, nil
}

// SetAddress changes the surface address, simulating a conversation switch.
func (f *Fake) SetAddress(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.URL = url
}

// AppendMessage adds a finished assistant message.
func (f *Fake) AppendMessage(id, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = append(f.Messages, Message{ID: id, Text: text})
}

// UpdateLast replaces the text of the newest message, simulating streaming.
func (f *Fake) UpdateLast(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Messages) > 0 {
		f.Messages[len(f.Messages)-1].Text = text
	}
}
