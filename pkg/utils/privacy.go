package utils

import "github.com/pobyzaarif/goshortcute"

// PseudonymizeIP encrypts a visitor IP before it is stored on a hit, so raw
// addresses never land in the database. Returns empty on any failure rather
// than falling back to the plain address.
func PseudonymizeIP(ip, key string) string {
	if ip == "" || key == "" {
		return ""
	}

	encrypted, err := goshortcute.AESCBCEncrypt([]byte(ip), []byte(key))
	if err != nil {
		return ""
	}

	return goshortcute.StringtoBase64Encode(encrypted)
}
