// Package env provides information about the host.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
)

const appID = "spektrum"

// ReceiverIDLen is the length of generated receiver IDs.
const ReceiverIDLen = 12

// ReceiverID derives a stable receiver ID from the machine ID, falling
// back to the host name.
func ReceiverID() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil || len(id) < ReceiverIDLen {
		if host, e := os.Hostname(); e == nil {
			return host
		}
		return appID
	}
	return id[:ReceiverIDLen]
}
