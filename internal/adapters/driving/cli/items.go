package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quizhunter/internal/adapters/driven/corpus"
	"github.com/custodia-labs/quizhunter/internal/core/domain"
)

var (
	itemsCorpus  corpusFlags
	itemsJSON    bool
	itemsSubject string
	itemsYear    string
)

var itemsCmd = &cobra.Command{
	Use:   "items [item-id...]",
	Short: "List indexed items",
	Long: `Lists items in index order, or prints the given items in full.
Reads the saved index unless --corpus is given; no embedding service is needed.`,
	RunE: runItems,
}

// itemRecord is the JSON shape of an item.
type itemRecord struct {
	ID           string         `json:"id"`
	Year         string         `json:"year"`
	Subject      string         `json:"subject"`
	GroupID      string         `json:"group_id,omitempty"`
	GroupContext string         `json:"group_context,omitempty"`
	Stem         string         `json:"stem,omitempty"`
	Options      []optionRecord `json:"options,omitempty"`
	Content      string         `json:"content,omitempty"`
	Date         string         `json:"date,omitempty"`
	Text         string         `json:"text"`
}

type optionRecord struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

func init() {
	itemsCorpus.register(itemsCmd, "read this corpus instead of the saved index")
	itemsCmd.Flags().BoolVar(&itemsJSON, "json", false, "output items as JSON")
	itemsCmd.Flags().StringVar(&itemsSubject, "subject", "", "only items of this subject")
	itemsCmd.Flags().StringVar(&itemsYear, "year", "", "only items of this year")
	rootCmd.AddCommand(itemsCmd)
}

func runItems(cmd *cobra.Command, args []string) error {
	c, err := openCorpus(cmd)
	if err != nil {
		return err
	}

	var selected []domain.Item
	if len(args) > 0 {
		for _, id := range args {
			idx, ok := c.IndexOf(id)
			if !ok {
				return fmt.Errorf("%w: item %q", domain.ErrNotFound, id)
			}
			selected = append(selected, c.At(idx))
		}
	} else {
		for _, item := range c.Items() {
			if itemsSubject != "" && !strings.EqualFold(item.Subject, itemsSubject) {
				continue
			}
			if itemsYear != "" && item.Year != itemsYear {
				continue
			}
			selected = append(selected, item)
		}
	}

	if itemsJSON {
		records := make([]itemRecord, len(selected))
		for i, item := range selected {
			records[i] = itemRecord{
				ID: item.ID, Year: item.Year, Subject: item.Subject,
				GroupID: item.GroupID, GroupContext: item.GroupContext,
				Stem: item.Stem, Content: item.Content, Date: item.Date, Text: item.Text,
			}
			for _, opt := range item.Options {
				records[i].Options = append(records[i].Options, optionRecord{Label: opt.Label, Text: opt.Text})
			}
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal items: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(selected) == 0 {
		cmd.Println("No items found.")
		return nil
	}

	full := len(args) > 0
	for _, item := range selected {
		cmd.Printf("%s  %s / %s\n", item.ID, item.Year, item.Subject)
		if full {
			cmd.Printf("  %s\n\n", item.Text)
		} else {
			cmd.Printf("  %s\n", truncate(item.Text, snippetRunes))
		}
	}
	cmd.Printf("\n%d items\n", len(selected))
	return nil
}

// openCorpus reads --corpus when given, otherwise the items of the saved snapshot.
func openCorpus(cmd *cobra.Command) (*domain.Corpus, error) {
	src, err := itemsCorpus.source()
	if err != nil {
		return nil, err
	}
	if src != nil {
		return corpus.Load(*src)
	}

	snapshot, err := loadSnapshot(commandContext(cmd))
	if err != nil {
		return nil, err
	}
	return domain.NewCorpus("snapshot", snapshot.Items)
}
