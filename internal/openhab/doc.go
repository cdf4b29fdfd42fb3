// Package openhab is the item registry client for the openHAB REST API.
//
// It implements the accessory.ItemRegistry contract:
//
//	GET  /rest/items/{item}/state   raw state, text/plain
//	POST /rest/items/{item}         command, text/plain
//	GET  /rest/items/{item}         item description, JSON
package openhab
