package pii

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"

	"mercator-hq/relayscrub/pkg/types"
)

// remarkKind maps a redaction method to the remark it leaves.
func remarkKind(m RedactionMethod) types.RemarkKind {
	switch m {
	case MethodRemove:
		return types.RemarkRemove
	case MethodMask:
		return types.RemarkMask
	case MethodHash:
		return types.RemarkHash
	}
	return types.RemarkReplace
}

// redactText rewrites text per r. hashKey is used when r sets no key.
func redactText(r *Redaction, text, hashKey string) string {
	switch r.Method {
	case MethodRemove:
		return ""
	case MethodMask:
		return maskText(r, text)
	case MethodHash:
		key := r.Key
		if key == "" {
			key = hashKey
		}
		return hashText(r.Algorithm, key, text)
	}
	return r.Text
}

func maskText(r *Redaction, text string) string {
	maskChar := '*'
	if r.MaskChar != "" {
		maskChar, _ = utf8.DecodeRuneInString(r.MaskChar)
	}
	n := utf8.RuneCountInString(text)
	var b strings.Builder
	b.Grow(len(text))
	i := 0
	for _, c := range text {
		if i < r.KeepPrefix || i >= n-r.KeepSuffix || strings.ContainsRune(r.CharsToIgnore, c) {
			b.WriteRune(c)
		} else {
			b.WriteRune(maskChar)
		}
		i++
	}
	return b.String()
}

// hashText returns the upper-case hex digest of text, keyed with HMAC (or
// BLAKE2b's native keying) when key is set.
func hashText(alg HashAlgorithm, key, text string) string {
	var h hash.Hash
	if alg == HashBLAKE2b {
		k := []byte(key)
		if len(k) > blake2b.Size {
			sum := blake2b.Sum512(k)
			k = sum[:]
		}
		// New256 only fails for keys longer than blake2b.Size.
		h, _ = blake2b.New256(k)
	} else {
		newHash := hashConstructor(alg)
		if key != "" {
			h = hmac.New(newHash, []byte(key))
		} else {
			h = newHash()
		}
	}
	h.Write([]byte(text))
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}

func hashConstructor(alg HashAlgorithm) func() hash.Hash {
	switch alg {
	case HashSHA256:
		return sha256.New
	case HashSHA512:
		return sha512.New
	}
	return sha1.New
}
