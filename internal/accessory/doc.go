// Package accessory adapts registry items into HomeKit-style accessories.
//
// Each accessory kind is a constructor that validates its configuration,
// checks the bound item's type against the kinds it supports, and
// registers a fixed set of characteristics. Characteristic reads and
// writes go straight to the ItemRegistry; only targets that the registry
// cannot report (window covering position, thermostat mode) are held
// locally.
//
// Construction is all-or-nothing: a failing accessory never registers a
// characteristic, and CreateAll isolates failures so one bad entry does
// not stop the rest of the bridge.
package accessory
