package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/misim/misim/oracle"
	ports "github.com/ZanzyTHEbar/misim/misim/oracle/ports"
)

// SubjectNormalizer rewrites statements into second person.
type SubjectNormalizer struct {
	oracle oracle.Completer
	cache  ports.Cache
}

// NewSubjectNormalizer creates a normalizer; cache may be nil.
func NewSubjectNormalizer(o oracle.Completer, cache ports.Cache) *SubjectNormalizer {
	return &SubjectNormalizer{oracle: o, cache: cache}
}

// Normalize returns statement rewritten with "you" as the subject.
func (n *SubjectNormalizer) Normalize(ctx context.Context, statement string) (string, error) {
	key := cacheKey(statement)
	if n.cache != nil {
		if v, ok := n.cache.Get(ctx, key); ok {
			return string(v), nil
		}
	}

	text, err := n.oracle.Complete(ctx, oracle.User("", normalizePrompt(statement)), oracle.Precise())
	if err != nil {
		return "", fmt.Errorf("normalize statement: %w", err)
	}
	out := stripLabel(text)

	if n.cache != nil && out != "" {
		_ = n.cache.Set(ctx, key, []byte(out), 0)
	}
	return out, nil
}

// stripLabel drops a leading "Label:" prefix and collapses whitespace.
func stripLabel(s string) string {
	if _, after, ok := strings.Cut(s, ":"); ok {
		s = after
	}
	return strings.Join(strings.Fields(s), " ")
}

func cacheKey(s string) string {
	sum := sha256.Sum256([]byte("normalize:" + s))
	return hex.EncodeToString(sum[:])
}
