package charset

import (
	"fmt"

	"golang.org/x/text/transform"
)

// Decode converts data in the given character set to a UTF-8 string.
// A nil eci is treated as ISO-8859-1, the QR Code default.
func Decode(data []byte, eci *ECI) (string, error) {
	if eci == nil {
		eci = ISO8859_1
	}
	if eci.Encoding == nil {
		return string(data), nil
	}
	out, _, err := transform.Bytes(eci.Encoding.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("charset: decode %s: %w", eci.Name, err)
	}
	return string(out), nil
}

// Encode converts UTF-8 text to the given character set. Characters the
// set cannot represent are an error.
func Encode(text string, eci *ECI) ([]byte, error) {
	if eci == nil {
		eci = ISO8859_1
	}
	if eci.Encoding == nil {
		return []byte(text), nil
	}
	out, _, err := transform.Bytes(eci.Encoding.NewEncoder(), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("charset: encode %s: %w", eci.Name, err)
	}
	return out, nil
}

// CanEncode reports whether every character of text is representable in eci.
func CanEncode(text string, eci *ECI) bool {
	_, err := Encode(text, eci)
	return err == nil
}
