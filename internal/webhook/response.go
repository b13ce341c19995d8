package webhook

import (
	"encoding/json"
	"strings"

	"server/internal/domain"
)

// The webhooks front several providers and the response schema is not
// stable, so fields are checked across known aliases in priority order.
var (
	imageURLAliases = []string{"image_url", "url", "result", "data"}
	videoURLAliases = []string{"video_url", "url", "result", "data"}
	jobIDAliases    = []string{"task_id", "id"}
	errorAliases    = []string{"error", "message"}

	pollURLAliases   = []string{"video_url", "image_url", "url", "result", "data"}
	pollErrorAliases = []string{"error", "error_message", "errorMessage"}
	pollStateAliases = []string{"status", "state", "etat"}
)

func interpretSubmitResponse(kind domain.Kind, raw []byte) (Outcome, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return Outcome{}, domain.NewGenerationError(domain.CategoryUnexpected, "", err)
	}

	urlAliases := videoURLAliases
	if kind == domain.KindImage {
		urlAliases = imageURLAliases
	}
	if url := firstString(body, urlAliases); url != "" {
		return Outcome{URL: url}, nil
	}
	if id := firstString(body, jobIDAliases); id != "" {
		return Outcome{JobID: id}, nil
	}
	// The job id sometimes nests under a data object.
	if data, ok := body["data"].(map[string]any); ok {
		if id := firstString(data, jobIDAliases); id != "" {
			return Outcome{JobID: id}, nil
		}
	}
	if reason := firstString(body, errorAliases); reason != "" {
		return Outcome{}, &domain.GenerationError{Category: ClassifyFailure(reason), Detail: reason}
	}
	return Outcome{}, domain.NewGenerationError(domain.CategoryUnexpected, "", nil)
}

func interpretPollResponse(raw []byte) (PollResult, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return PollResult{}, err
	}
	result := PollResult{
		URL:   firstString(body, pollURLAliases),
		State: firstString(body, pollStateAliases),
	}
	result.ErrorMsg = firstString(body, pollErrorAliases)
	if result.ErrorMsg == "" {
		// Some shapes nest the error as an object with a message.
		if obj, ok := body["error"].(map[string]any); ok {
			if msg, ok := obj["message"].(string); ok {
				result.ErrorMsg = strings.TrimSpace(msg)
			}
		}
	}
	return result, nil
}

// TerminalFailureState reports whether a coarse state string signals a
// failed job. Keyword match, case-insensitive; best effort.
func TerminalFailureState(state string) bool {
	s := strings.ToLower(state)
	return strings.Contains(s, "failed") || strings.Contains(s, "error")
}

// CompletedState reports whether a coarse state string claims
// completion. A completed state without a result URL is still treated
// as non-terminal: the provider is known to report completion before
// the artifact URL is attached.
func CompletedState(state string) bool {
	s := strings.ToLower(state)
	return strings.Contains(s, "completed") || strings.Contains(s, "success")
}

// firstString returns the first alias whose value is a non-empty,
// non-"null" string.
func firstString(body map[string]any, aliases []string) string {
	for _, key := range aliases {
		v, ok := body[key].(string)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, "null") {
			continue
		}
		return v
	}
	return ""
}
