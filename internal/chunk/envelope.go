package chunk

// Envelope adds the uniform resumability fields to a domain payload.
//
// has_more is always present; continuation_token only when has_more is true.
// A missing token alongside has_more=true is a caller defect upstream, but
// the partial payload must stay consumable, so the token is emitted as nil
// rather than failing the response. Envelope does not re-check the response
// size after adding its own fields; the budget threshold absorbs them.
func Envelope(data map[string]interface{}, hasMore bool, tokenID string) map[string]interface{} {
	data["has_more"] = hasMore
	if hasMore {
		if tokenID == "" {
			data["continuation_token"] = nil
		} else {
			data["continuation_token"] = tokenID
		}
	}
	return data
}

// PageEnvelope wraps a Page's resumability state around a domain payload.
func PageEnvelope(data map[string]interface{}, page *Page) map[string]interface{} {
	return Envelope(data, page.HasMore, page.TokenID)
}
