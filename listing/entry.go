// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package listing

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/danielhkuo/listgen/models"
)

// Section names the history entry is built from
const (
	TitleSection       = "title"
	DescriptionSection = "product_description"
	AttributesSection  = "attributes"
)

// NewEntry builds a history entry with a fresh chat id
func NewEntry(l *Listing) (models.ListingEntry, error) {
	entry := models.ListingEntry{
		ChatID:     uuid.NewString(),
		Title:      models.DefaultListingTitle,
		Attributes: "{}",
	}

	if v, ok := l.Get(TitleSection); ok {
		entry.Title = formatValue(v)
	}
	if v, ok := l.Get(DescriptionSection); ok {
		entry.Description = formatValue(v)
	}
	if v, ok := l.Get(AttributesSection); ok {
		b, err := json.Marshal(v)
		if err != nil {
			return models.ListingEntry{}, fmt.Errorf("failed to encode attributes: %w", err)
		}
		entry.Attributes = string(b)
	}

	return entry, nil
}
