package llmcaller

import (
	"context"
)

// Caller drives one completion call end to end: compatibility
// fallbacks on the first few failures, then transient-error retry with
// backoff, streaming through Consume to produce the final
// AccumulatedMessage.
type Caller struct {
	client ChatClient
	retry  RetryConfig
}

func NewCaller(client ChatClient, retry RetryConfig) *Caller {
	return &Caller{client: client, retry: retry}
}

// Complete runs req against the client, applying a three-step fallback
// chain on the first matching error class (each fixup is applied at
// most once per call), then retrying remaining transient failures with
// backoff. emit (may be nil) receives stream events as they occur.
func (c *Caller) Complete(ctx context.Context, req Request, emit func(StreamEvent)) (*AccumulatedMessage, error) {
	working := req
	if req.Extra != nil {
		working.Extra = make(map[string]any, len(req.Extra))
		for k, v := range req.Extra {
			working.Extra[k] = v
		}
	}
	if NeedsSystemMerge(working.Model, working.BaseURL) {
		working.Messages = MergeLeadingSystemMessages(working.Messages)
	}

	strippedParam := false
	patchedReasoning := false
	mergedSystem := false

	for {
		result, err := WithRetry(ctx, c.retry, func(ctx context.Context) (*AccumulatedMessage, error) {
			chunks, streamErr := c.client.Stream(ctx, working)
			if streamErr != nil {
				return nil, streamErr
			}
			return Consume(chunks, emit)
		})
		if err == nil {
			return result, nil
		}

		switch {
		case !strippedParam && IsUnsupportedParameterError(err):
			strippedParam = true
			StripCanonicalParam(&working)
			continue
		case !patchedReasoning && IsMissingReasoningContentError(err):
			patchedReasoning = true
			working.Messages = PatchReasoningContent(working.Messages)
			continue
		case !mergedSystem && IsSystemMultiplicityError(err):
			mergedSystem = true
			working.Messages = MergeLeadingSystemMessages(working.Messages)
			MarkSystemMergeRequired(working.Model, working.BaseURL)
			continue
		default:
			return nil, err
		}
	}
}
