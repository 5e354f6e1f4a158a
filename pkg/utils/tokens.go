package utils

import (
	"github.com/pkoukk/tiktoken-go"
)

// CountTokens estimates the prompt size of text with the cl100k encoding.
func CountTokens(text string) (int, error) {
	tkm, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0, err
	}

	return len(tkm.Encode(text, nil, nil)), nil
}
