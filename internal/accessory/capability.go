package accessory

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// ItemType is the type tag the registry reports for an item.
type ItemType string

// Item types understood by the adapters.
const (
	ItemSwitch        ItemType = "Switch"
	ItemDimmer        ItemType = "Dimmer"
	ItemColor         ItemType = "Color"
	ItemNumber        ItemType = "Number"
	ItemRollershutter ItemType = "Rollershutter"
	ItemContact       ItemType = "Contact"
	ItemString        ItemType = "String"
)

// BaseType strips a quantity suffix, so "Number:Temperature" becomes "Number".
func (t ItemType) BaseType() ItemType {
	base, _, _ := strings.Cut(string(t), ":")
	return ItemType(base)
}

// CheckItemType returns a *CapabilityError when reported is not in allowed.
func CheckItemType(item string, reported ItemType, allowed ...ItemType) error {
	if slices.Contains(allowed, reported.BaseType()) {
		return nil
	}
	return &CapabilityError{Item: item, Reported: reported, Allowed: allowed}
}

// validateItem queries the item's type once and checks it against allowed.
// Registry failures are returned unchanged.
func validateItem(ctx context.Context, registry ItemRegistry, item string, allowed ...ItemType) (ItemType, error) {
	raw, err := registry.GetItemType(ctx, item)
	if err != nil {
		return "", fmt.Errorf("reading type of item %q: %w", item, err)
	}
	reported := ItemType(raw)
	if err := CheckItemType(item, reported, allowed...); err != nil {
		return "", err
	}
	return reported.BaseType(), nil
}
