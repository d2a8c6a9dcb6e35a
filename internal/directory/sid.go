package directory

import "github.com/dirsync/dirsync/internal/sid"

// decodeSID converts a binary objectSid to its textual form.
func decodeSID(raw []byte) (string, error) {
	parsed, err := sid.Decode(raw)
	if err != nil {
		return "", err
	}

	return parsed.String(), nil
}
