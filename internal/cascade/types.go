package cascade

// Position is a 0-based line number and UTF-16 code-unit column,
// matching how editors address document text.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open [Start, End) span of document text.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// UsageContext distinguishes where a var() reference was found.
const (
	// ContextStylesheet marks usages found in stylesheet text,
	// including <style> element bodies.
	ContextStylesheet = ""
	// ContextInlineStyle marks usages found in style="..." attributes.
	ContextInlineStyle = "inline-style"
)

// Definition is one `--name: value` declaration.
type Definition struct {
	// Name includes the leading `--`.
	Name string
	// Value is the declaration value text with `!important` stripped.
	Value string
	// FileURI identifies the file the declaration came from.
	FileURI string
	// Range covers the whole declaration, NameRange the property name,
	// ValueRange the value text.
	Range      Range
	NameRange  Range
	ValueRange Range
	// Selector is the enclosing selector text, ":root" for top-level
	// declarations, the at-rule prelude (e.g. "@media ...") inside
	// conditional rules, or an element description for inline styles.
	Selector    string
	Specificity Specificity
	Important   bool
	// Inline is true for declarations in style="..." attributes.
	Inline bool
	// SourceOrder is the declaration's position among all declarations
	// scanned from its file, counted in document order.
	SourceOrder int
}

// Usage is one `var(--name)` or `var(--name, fallback)` reference.
type Usage struct {
	// Name includes the leading `--`.
	Name string
	// Fallback is the trimmed text after the first top-level comma,
	// empty when the reference has no fallback.
	Fallback string
	FileURI  string
	// Range covers the whole var(...) call, NameRange the variable name.
	Range     Range
	NameRange Range
	// Context is ContextStylesheet or ContextInlineStyle.
	Context string
}
