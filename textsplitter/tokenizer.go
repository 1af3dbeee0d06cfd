package textsplitter

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TikTokenTokenizer counts tokens with OpenAI's tiktoken cl100k_base
// encoding, used for token-count diagnostics before a character-based
// truncation fires.
type TikTokenTokenizer struct {
	encoding *tiktoken.Tiktoken
}

// NewTikTokenTokenizer loads the cl100k_base encoding (GPT-4,
// GPT-3.5-turbo, text-embedding-ada-002) that embedding.HTTPProvider
// uses for its truncation diagnostic.
func NewTikTokenTokenizer() (*TikTokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get cl100k_base encoding: %w", err)
	}
	return &TikTokenTokenizer{encoding: enc}, nil
}

// CountTokens returns the number of cl100k_base tokens text encodes to.
func (t *TikTokenTokenizer) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}
