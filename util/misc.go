package util

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// JsonHash is the hex sha256 of the JSON encoding of s.
func JsonHash(s interface{}) (string, error) {
	bs, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("error encoding value to hash: %w", err)
	}
	hash := sha256.Sum256(bs)
	return hex.EncodeToString(hash[:]), nil
}

func CopyIntSlice(s []int) []int {
	out := make([]int, len(s))
	copy(out, s)
	return out
}
