package paths

import (
	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
)

// Ignore holds compiled ignore expressions. A nil *Ignore ignores nothing.
type Ignore struct {
	patterns []*regexp2.Regexp
}

func CompileIgnore(expressions []string) (*Ignore, error) {
	ig := &Ignore{patterns: make([]*regexp2.Regexp, 0, len(expressions))}
	for _, expression := range expressions {
		re, err := regexp2.Compile(expression, regexp2.IgnoreCase)
		if err != nil {
			return nil, errors.Wrapf(err, "compile ignore pattern %q", expression)
		}
		ig.patterns = append(ig.patterns, re)
	}
	return ig, nil
}

// IsIgnored reports whether path matches any ignore expression.
// Evaluation errors (e.g. backtracking timeouts) count as no match.
func (ig *Ignore) IsIgnored(path string) bool {
	if ig == nil {
		return false
	}

	for _, re := range ig.patterns {
		if ok, err := re.MatchString(path); err == nil && ok {
			return true
		}
	}

	return false
}

func (ig *Ignore) Len() int {
	if ig == nil {
		return 0
	}
	return len(ig.patterns)
}
