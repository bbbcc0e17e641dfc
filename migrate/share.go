package migrate

import (
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/mzlab/mzwake/store"
)

// maxQRPayload is a conservative bound under the byte-mode capacity of a
// version-40 low-EC QR code. Larger exports must be split by the caller;
// there is no automatic chunking.
const maxQRPayload = 2900

// ErrPayloadTooLarge is returned when a snapshot does not fit one QR code.
var ErrPayloadTooLarge = fmt.Errorf("snapshot exceeds %d bytes, split the data before sharing", maxQRPayload)

// SharePayload serializes a snapshot for QR transport.
func SharePayload(snap *store.Snapshot) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	if len(payload) > maxQRPayload {
		return nil, ErrPayloadTooLarge
	}
	return payload, nil
}

// ShareQR encodes the snapshot as a QR code PNG of the given pixel size.
func ShareQR(snap *store.Snapshot, size int) ([]byte, error) {
	payload, err := SharePayload(snap)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 512
	}
	return qrcode.Encode(string(payload), qrcode.Medium, size)
}
