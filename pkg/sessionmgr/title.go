package sessionmgr

import (
	"context"
	"strings"

	"github.com/sheetrtd/sheetrt/pkg/llmcaller"
	"github.com/sheetrtd/sheetrt/pkg/store"
)

// TitleSynthesizer drives an auxiliary LLM call: after the first
// assistant reply, produce a 5-10 character session title from the
// opening exchange.
type TitleSynthesizer struct {
	caller *llmcaller.Caller
	model  string
}

// NewTitleSynthesizer constructs a TitleSynthesizer that calls model
// through caller. A nil caller makes Synthesize a no-op, so deployments
// that skip title synthesis don't need a special-case caller elsewhere.
func NewTitleSynthesizer(caller *llmcaller.Caller, model string) *TitleSynthesizer {
	return &TitleSynthesizer{caller: caller, model: model}
}

// Synthesize asks the model for a short title summarizing userText, and
// clamps the result to SynthesizedTitleMaxChars. Returns "" (not an
// error) when no caller is configured.
func (t *TitleSynthesizer) Synthesize(ctx context.Context, userText string) (string, error) {
	if t.caller == nil {
		return "", nil
	}
	acc, err := t.caller.Complete(ctx, llmcaller.Request{
		Model: t.model,
		Messages: []llmcaller.Message{
			{Role: "system", Content: "Reply with a 5 to 10 character title summarizing the user's request. No punctuation, no quotes."},
			{Role: "user", Content: userText},
		},
	}, nil)
	if err != nil {
		return "", err
	}
	return clampTitle(acc.Text), nil
}

func clampTitle(text string) string {
	title := strings.TrimSpace(text)
	title = strings.Trim(title, `"'`)
	if len(title) > SynthesizedTitleMaxChars {
		title = title[:SynthesizedTitleMaxChars]
	}
	return title
}

// SyncTitle writes title to sessionID via UpdateTitle only if the
// session's current title_source is unset, protecting a user-overridden
// title from being silently replaced by a later synthesized one.
func (m *Manager) SyncTitle(ctx context.Context, sessionID, title string) error {
	if title == "" {
		return nil
	}
	sess, err := m.scope.Sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.TitleSource != store.TitleUnset {
		return nil
	}
	return m.scope.Sessions.UpdateTitle(ctx, sessionID, title, store.TitleAuto)
}
