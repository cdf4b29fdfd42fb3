package mqtt

import "strings"

// TopicPrefix is the root of every bridge topic.
const TopicPrefix = "ohbridge"

// Topics builds bridge topic names.
//
//	ohbridge/bridge/status                      retained online/offline
//	ohbridge/state/{serial}/{characteristic}    retained characteristic values
//	ohbridge/set/{serial}/{characteristic}      remote writes
type Topics struct{}

// BridgeStatus is the retained online/offline topic.
func (Topics) BridgeStatus() string {
	return TopicPrefix + "/bridge/status"
}

// CharacteristicState is where characteristic values are published.
func (Topics) CharacteristicState(serial, characteristic string) string {
	return TopicPrefix + "/state/" + serial + "/" + characteristic
}

// CharacteristicSet is the command topic for one characteristic.
func (Topics) CharacteristicSet(serial, characteristic string) string {
	return TopicPrefix + "/set/" + serial + "/" + characteristic
}

// AllCharacteristicSets matches every command topic.
func (Topics) AllCharacteristicSets() string {
	return TopicPrefix + "/set/+/+"
}

// ParseCharacteristicSet extracts serial and characteristic from a command topic.
func (Topics) ParseCharacteristicSet(topic string) (serial, characteristic string, ok bool) {
	rest, found := strings.CutPrefix(topic, TopicPrefix+"/set/")
	if !found {
		return "", "", false
	}
	serial, characteristic, found = strings.Cut(rest, "/")
	if !found || serial == "" || characteristic == "" || strings.Contains(characteristic, "/") {
		return "", "", false
	}
	return serial, characteristic, true
}
