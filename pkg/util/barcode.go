package util

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// BarcodePrefix marks address barcodes printed on collection bins.
const BarcodePrefix = "WB"

var ErrInvalidBarcode = errors.New("invalid address barcode")

// FormatAddressBarcode renders an address id as WB followed by 8 zero-padded digits.
func FormatAddressBarcode(addressID uint) string {
	return fmt.Sprintf("%s%08d", BarcodePrefix, addressID)
}

// ParseAddressBarcode accepts the printed form, with or without the prefix,
// case-insensitive and surrounding whitespace ignored.
func ParseAddressBarcode(code string) (uint, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.TrimPrefix(code, BarcodePrefix)
	if code == "" || len(code) > 10 {
		return 0, ErrInvalidBarcode
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return 0, ErrInvalidBarcode
		}
	}

	id, err := strconv.ParseUint(code, 10, 32)
	if err != nil || id == 0 {
		return 0, ErrInvalidBarcode
	}
	return uint(id), nil
}
