package model

import "github.com/pkoukk/tiktoken-go"

// CountTokens counts tokens with a gpt-3.5 compatible encoding. Good enough
// for budgeting prompts against local models.
func CountTokens(text string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// TruncateTokens cuts text down to at most maxTokens tokens. On encoder
// failure the text is returned unchanged rather than failing the request.
func TruncateTokens(text string, maxTokens int) string {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return text
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}
