package model

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

// PublicMetrics mirrors the engagement counters returned with tweet.fields=public_metrics.
type PublicMetrics struct {
	RetweetCount    int `json:"retweet_count"`
	ReplyCount      int `json:"reply_count"`
	LikeCount       int `json:"like_count"`
	QuoteCount      int `json:"quote_count"`
	BookmarkCount   int `json:"bookmark_count,omitempty"`
	ImpressionCount int `json:"impression_count,omitempty"`
}

// Post is a single search hit. It is forwarded downstream as an opaque payload:
// when decoded from the API, the exact JSON object received is what gets re-encoded.
type Post struct {
	ID            string         `json:"id,omitempty"`
	Text          string         `json:"text"`
	CreatedAt     string         `json:"created_at,omitempty"`
	PublicMetrics *PublicMetrics `json:"public_metrics,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON keeps the original object. Fields are decoded best-effort so
// that one malformed post never fails the surrounding page. Numeric and boolean
// ids keep their JSON text; object and array ids are left empty.
func (p *Post) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	*p = Post{raw: append(json.RawMessage(nil), b...)}

	var fields struct {
		ID            json.RawMessage `json:"id"`
		Text          json.RawMessage `json:"text"`
		CreatedAt     json.RawMessage `json:"created_at"`
		PublicMetrics json.RawMessage `json:"public_metrics"`
	}
	if err := json.Unmarshal(b, &fields); err != nil {
		// Not an object: forward as-is under the fallback key.
		return nil
	}
	p.ID = stringifyID(fields.ID)
	decodeLoose(fields.Text, &p.Text)
	decodeLoose(fields.CreatedAt, &p.CreatedAt)
	if !decodeLoose(fields.PublicMetrics, &p.PublicMetrics) {
		p.PublicMetrics = nil
	}
	return nil
}

func decodeLoose(raw json.RawMessage, dst any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// MarshalJSON returns the original object when the post came from the API.
func (p Post) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	type alias Post
	return json.Marshal(alias(p))
}

// Preview returns at most n characters of the text, with "..." appended when cut.
func (p Post) Preview(n int) string {
	if n <= 0 || utf8.RuneCountInString(p.Text) <= n {
		return p.Text
	}
	runes := []rune(p.Text)
	return string(runes[:n]) + "..."
}

func stringifyID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	default:
		// numbers and booleans
		return string(raw)
	}
}

// SearchMeta is the meta block of a recent-search response.
type SearchMeta struct {
	ResultCount int    `json:"result_count"`
	NewestID    string `json:"newest_id,omitempty"`
	OldestID    string `json:"oldest_id,omitempty"`
	NextToken   string `json:"next_token,omitempty"`
}

// SearchResult is one page of recent-search results. Data may be empty.
type SearchResult struct {
	Meta SearchMeta `json:"meta"`
	Data []Post     `json:"data"`
}
