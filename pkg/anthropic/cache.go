package anthropic

// CachedSystem builds a single system block with an ephemeral cache
// breakpoint. The assist prompt and schema are identical across documents,
// so consecutive requests within the TTL read them from the prompt cache.
func CachedSystem(text, ttl string) []SystemBlock {
	if text == "" {
		return nil
	}
	return []SystemBlock{{Text: text, CacheControl: &CacheControl{TTL: ttl}}}
}
