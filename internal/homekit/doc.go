// Package homekit publishes accessories to HomeKit controllers.
//
// Each accessory becomes one HAP accessory with the service matching its
// kind. Controller reads call the adapter's characteristic Get; controller
// writes call Set. The bridge accessory is the root and the HAP server
// persists its pairing keys in a filesystem store.
package homekit
