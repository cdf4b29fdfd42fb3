package accessory

import "github.com/google/uuid"

// serialNamespace scopes name-derived serial numbers to this bridge.
var serialNamespace = uuid.MustParse("6f1d0c5e-4b8a-5e2f-9a53-0b6c7d1e2f30")

// SerialNumber derives a stable serial number from an accessory name.
// The same name always yields the same serial, so pairings survive restarts.
func SerialNumber(name string) string {
	return uuid.NewSHA1(serialNamespace, []byte(name)).String()
}
