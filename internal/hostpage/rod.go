package hostpage

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodAdapter drives a chat surface over the Chrome DevTools Protocol.
type RodAdapter struct {
	page *rod.Page
	sel  Selectors
}

// Connect attaches to a running Chrome at controlURL, or launches a headless
// instance when controlURL is empty, and opens url on the resulting browser.
func Connect(ctx context.Context, controlURL, url string, sel Selectors) (*RodAdapter, error) {
	if controlURL == "" {
		launched, err := launcher.New().Headless(true).Launch()
		if err != nil {
			return nil, fmt.Errorf("hostpage: launch chrome: %w", err)
		}
		controlURL = launched
	}
	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("hostpage: connect to chrome: %w", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("hostpage: open page: %w", err)
	}
	return &RodAdapter{page: page, sel: sel}, nil
}

// NewRodAdapter wraps an already-open page, for attaching to the user's own
// browser tab.
func NewRodAdapter(page *rod.Page, sel Selectors) *RodAdapter {
	return &RodAdapter{page: page, sel: sel}
}

// element returns the first element matching any selector in the list, or nil
// when none match.
func (a *RodAdapter) element(selectors []string) (*rod.Element, error) {
	for _, s := range selectors {
		has, el, err := a.page.Has(s)
		if err != nil {
			return nil, fmt.Errorf("hostpage: query %q: %w", s, err)
		}
		if has {
			return el, nil
		}
	}
	return nil, nil
}

// Address returns the page URL.
func (a *RodAdapter) Address() (string, error) {
	info, err := a.page.Info()
	if err != nil {
		return "", fmt.Errorf("hostpage: page info: %w", err)
	}
	return info.URL, nil
}

// ComposeText reads the input field's current value.
func (a *RodAdapter) ComposeText() (string, error) {
	el, err := a.element(a.sel.Compose)
	if err != nil {
		return "", err
	}
	if el == nil {
		return "", ErrNoComposeField
	}
	res, err := el.Eval(`() => this.value !== undefined ? this.value : this.innerText`)
	if err != nil {
		return "", fmt.Errorf("hostpage: read compose field: %w", err)
	}
	return res.Value.Str(), nil
}

// SetComposeText replaces the input field's value and dispatches an input
// event so the site's own state tracks the change.
func (a *RodAdapter) SetComposeText(text string) error {
	el, err := a.element(a.sel.Compose)
	if err != nil {
		return err
	}
	if el == nil {
		return ErrNoComposeField
	}
	_, err = el.Eval(`(text) => {
		if (this.value !== undefined) {
			this.value = text;
		} else {
			this.innerText = text;
		}
		this.dispatchEvent(new Event('input', { bubbles: true }));
	}`, text)
	if err != nil {
		return fmt.Errorf("hostpage: set compose field: %w", err)
	}
	return nil
}

// Submit clicks the send control.
func (a *RodAdapter) Submit() error {
	el, err := a.element(a.sel.Submit)
	if err != nil {
		return err
	}
	if el == nil {
		return ErrNoSubmitControl
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("hostpage: click submit: %w", err)
	}
	return nil
}

// LatestAssistantMessage returns the newest assistant message on the page.
func (a *RodAdapter) LatestAssistantMessage() (string, string, error) {
	for _, s := range a.sel.AssistantMessage {
		els, err := a.page.Elements(s)
		if err != nil {
			return "", "", fmt.Errorf("hostpage: query %q: %w", s, err)
		}
		if len(els) == 0 {
			continue
		}
		el := els[len(els)-1]
		text, err := el.Text()
		if err != nil {
			return "", "", fmt.Errorf("hostpage: read message: %w", err)
		}
		id := ""
		if a.sel.MessageIDAttr != "" {
			if attr, err := el.Attribute(a.sel.MessageIDAttr); err == nil && attr != nil {
				id = *attr
			}
		}
		return id, text, nil
	}
	return "", "", ErrNoMessages
}

var _ Adapter = (*RodAdapter)(nil)
