package driven

// Tokenizer splits text into index terms.
// The same policy must be used at build time and at query time.
type Tokenizer interface {
	// Name identifies the policy; it is recorded with the lexical index.
	Name() string

	// Tokenize returns the terms of text in order, duplicates kept.
	Tokenize(text string) []string
}
