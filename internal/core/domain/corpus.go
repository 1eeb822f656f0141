package domain

import "iter"

// Corpus is the ordered, immutable collection of retrievable items.
//
// The position of an item in the corpus is its item index. Both search
// indexes address items by this index, so it never changes once the corpus
// has been built.
type Corpus struct {
	items []Item
	byID  map[string]int
}

// NewCorpus validates items and freezes them into a corpus.
// source names the origin of the items and is only used in errors.
func NewCorpus(source string, items []Item) (*Corpus, error) {
	c := &Corpus{
		items: make([]Item, len(items)),
		byID:  make(map[string]int, len(items)),
	}

	for i, item := range items {
		if item.ID == "" {
			return nil, &SchemaError{Source: source, Record: i, Field: "id"}
		}
		if _, dup := c.byID[item.ID]; dup {
			return nil, &SchemaError{Source: source, Record: i, Field: "id", Reason: "duplicate id " + item.ID}
		}
		c.byID[item.ID] = i
		c.items[i] = item.withDefaults()
	}

	return c, nil
}

// Len returns the number of items.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// At returns the item at index i.
func (c *Corpus) At(i int) Item {
	return c.items[i]
}

// IndexOf returns the item index for an external ID.
func (c *Corpus) IndexOf(id string) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}

// Texts returns the assembled text of every item in index order.
func (c *Corpus) Texts() []string {
	if c == nil {
		return nil
	}
	texts := make([]string, len(c.items))
	for i := range c.items {
		texts[i] = c.items[i].Text
	}
	return texts
}

// Items iterates over the corpus in index order.
func (c *Corpus) Items() iter.Seq2[int, Item] {
	return func(yield func(int, Item) bool) {
		if c == nil {
			return
		}
		for i := range c.items {
			if !yield(i, c.items[i]) {
				return
			}
		}
	}
}

// Slice returns a copy of all items in index order.
func (c *Corpus) Slice() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}
