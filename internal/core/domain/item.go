package domain

import "strings"

// UnknownField is the placeholder for missing categorical metadata.
const UnknownField = "unknown"

// Option is one labelled answer choice of a question.
type Option struct {
	// Label is the choice marker, e.g. "A" or "甲".
	Label string

	// Text is the choice body.
	Text string
}

// Item is one retrievable unit of the corpus.
// Items are immutable once a Corpus has been constructed from them.
type Item struct {
	// ID is the stable external identifier, unique within the corpus.
	ID string

	// Year is the exam year, "unknown" when absent.
	Year string

	// Subject is the exam subject, "unknown" when absent.
	Subject string

	// GroupID identifies the question group the item belongs to, if any.
	GroupID string

	// GroupContext is the shared passage of the question group.
	GroupContext string

	// Stem is the question body.
	Stem string

	// Options are the answer choices in source order.
	Options []Option

	// Content is the verbatim text of tabular records.
	Content string

	// Date is the tabular record date, kept for display only.
	Date string

	// Text is the assembled text used for tokenization and embedding.
	Text string
}

// AssembleText builds the text that is indexed for an item.
//
// Parts are joined by a single space in this order: the group context (only
// when the item belongs to a group and the context is non-empty), the stem,
// then every option rendered as "(label) text". Tabular items that carry no
// stem and no options use Content verbatim.
//
// The same function must be used when building the indexes and when an item
// is turned into a query, otherwise "similar to item X" searches drift.
func AssembleText(item Item) string {
	if item.Stem == "" && len(item.Options) == 0 {
		return item.Content
	}

	parts := make([]string, 0, len(item.Options)+2)
	if item.GroupID != "" && item.GroupContext != "" {
		parts = append(parts, item.GroupContext)
	}
	if item.Stem != "" {
		parts = append(parts, item.Stem)
	}
	for _, opt := range item.Options {
		parts = append(parts, "("+opt.Label+") "+opt.Text)
	}

	return strings.Join(parts, " ")
}

// QuestionText builds a query from a group context and a stem,
// skipping the context when it is blank.
func QuestionText(groupContext, stem string) string {
	groupContext = strings.TrimSpace(groupContext)
	stem = strings.TrimSpace(stem)
	if groupContext == "" {
		return stem
	}
	return groupContext + " " + stem
}

// withDefaults fills the categorical fields and the assembled text.
func (i Item) withDefaults() Item {
	if i.Year == "" {
		i.Year = UnknownField
	}
	if i.Subject == "" {
		i.Subject = UnknownField
	}
	i.Options = append([]Option(nil), i.Options...)
	i.Text = AssembleText(i)
	return i
}
