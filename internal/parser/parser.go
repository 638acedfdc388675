// Package parser turns a free-form chat line into an expense draft.
//
// Accepted shape: "<price>[k|rb|ribu|jt|juta] <item>[ - <description>]".
// The price accepts "." or "," as decimal point; the description may also be
// separated by ", " or " | ". The category is derived from keywords found in
// the item and description.
package parser

import (
	"errors"
	"strings"

	"pengeluaran/internal/core"
)

// ErrUnparsable reports that a message is not an expense entry.
var ErrUnparsable = errors.New("unrecognized expense format")

// Parse converts one raw message into a draft. It has no side effects.
func Parse(text string) (core.Draft, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return core.Draft{}, ErrUnparsable
	}

	amount, rest, ok := ParseAmount(text)
	if !ok {
		return core.Draft{}, ErrUnparsable
	}

	item, desc, ok := SplitEntry(rest)
	if !ok {
		return core.Draft{}, ErrUnparsable
	}

	combined := item + " "
	if desc != nil {
		combined += *desc
	}

	return core.Draft{
		Amount:      amount,
		Item:        item,
		Description: desc,
		Category:    Categorize(combined),
	}, nil
}
