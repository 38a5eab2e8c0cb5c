// Package cascade implements the specificity and precedence rules used to
// pick the winning definition of a CSS custom property.
package cascade

import (
	"fmt"
	"regexp"
	"strings"
)

// Specificity is the 4-tuple (inline, id, class, element) compared
// lexicographically. Attribute selectors and pseudo-classes count as
// classes; pseudo-elements count as elements.
type Specificity struct {
	Inline   int
	IDs      int
	Classes  int
	Elements int
}

var (
	rePseudoElement = regexp.MustCompile(`::[a-zA-Z-]+`)
	reID            = regexp.MustCompile(`#[a-zA-Z0-9_-]+`)
	reAttribute     = regexp.MustCompile(`\[[^\]]*\]`)
	reClass         = regexp.MustCompile(`\.[a-zA-Z0-9_-]+`)
	rePseudoClass   = regexp.MustCompile(`:[a-zA-Z-]+(\([^)]*\))?`)
	reSeparator     = regexp.MustCompile(`[\s>+~]+`)
)

// SpecificityOf computes the specificity of a selector. Inline declarations
// outrank any selector, so isInline yields (1,0,0,0) regardless of text.
// Selector lists (`a, b`) take the maximum over their members.
func SpecificityOf(selector string, isInline bool) Specificity {
	if isInline {
		return Specificity{Inline: 1}
	}

	var best Specificity
	for _, member := range strings.Split(selector, ",") {
		s := compoundSpecificity(member)
		if s.Compare(best) > 0 {
			best = s
		}
	}
	return best
}

// compoundSpecificity counts one comma-list member by stripping recognized
// simple selectors in precedence order and counting what remains as
// element names.
func compoundSpecificity(selector string) Specificity {
	var s Specificity

	rest := rePseudoElement.ReplaceAllStringFunc(selector, func(string) string {
		s.Elements++
		return " "
	})
	rest = reID.ReplaceAllStringFunc(rest, func(string) string {
		s.IDs++
		return " "
	})
	rest = reAttribute.ReplaceAllStringFunc(rest, func(string) string {
		s.Classes++
		return " "
	})
	rest = reClass.ReplaceAllStringFunc(rest, func(string) string {
		s.Classes++
		return " "
	})
	rest = rePseudoClass.ReplaceAllStringFunc(rest, func(string) string {
		s.Classes++
		return " "
	})

	for _, token := range reSeparator.Split(rest, -1) {
		if token == "" || token == "*" || token == "&" {
			continue
		}
		s.Elements++
	}
	return s
}

// Compare returns a negative number if s is less specific than other,
// zero if equal, and a positive number if more specific.
func (s Specificity) Compare(other Specificity) int {
	if d := s.Inline - other.Inline; d != 0 {
		return d
	}
	if d := s.IDs - other.IDs; d != 0 {
		return d
	}
	if d := s.Classes - other.Classes; d != 0 {
		return d
	}
	return s.Elements - other.Elements
}

func (s Specificity) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", s.Inline, s.IDs, s.Classes, s.Elements)
}
