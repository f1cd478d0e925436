// Package hostpage abstracts the chat site the guard and auditor operate on.
// The core never touches markup directly; everything goes through Adapter so
// the workflow is independent of any particular site's DOM.
package hostpage

import "errors"

var (
	// ErrNoComposeField means the input field could not be located.
	ErrNoComposeField = errors.New("hostpage: compose field not found")
	// ErrNoSubmitControl means the send affordance could not be located.
	ErrNoSubmitControl = errors.New("hostpage: submit control not found")
	// ErrNoMessages means no assistant message is present yet.
	ErrNoMessages = errors.New("hostpage: no assistant messages")
)

// Adapter is the capability interface onto one chat surface.
type Adapter interface {
	// Address returns the surface's conversation address. A change of address
	// means a different conversation.
	Address() (string, error)

	// ComposeText reads the current contents of the input field.
	ComposeText() (string, error)

	// SetComposeText replaces the input field's contents. Implementations
	// must also fire the page's own input-changed notification so the host
	// application's internal state tracks the new value.
	SetComposeText(text string) error

	// Submit activates the send control.
	Submit() error

	// LatestAssistantMessage returns the newest assistant message. id is a
	// stable message identifier when the site exposes one, otherwise empty.
	LatestAssistantMessage() (id, text string, err error)
}
