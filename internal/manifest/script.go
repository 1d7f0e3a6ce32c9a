package manifest

import (
	"strings"

	"voxpull/internal/services"
)

const contentMarker = "content:"

// ExtractScriptText parses the script payload wrapper: one framing
// character at each end, with the recorded text following a `content:`
// marker inside. Anything that does not match fails loudly instead of
// producing a garbage substring.
func ExtractScriptText(payload string) (string, error) {
	if len(payload) < 2 {
		return "", services.Wrap(services.ErrMalformedPayload, "manifest", "extract script",
			"payload shorter than wrapper", nil)
	}
	inner := payload[1 : len(payload)-1]
	idx := strings.Index(inner, contentMarker)
	if idx < 0 {
		return "", services.Wrap(services.ErrMalformedPayload, "manifest", "extract script",
			"payload missing content marker", nil)
	}
	return inner[idx+len(contentMarker):], nil
}
