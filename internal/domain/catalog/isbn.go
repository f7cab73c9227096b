package catalog

import (
	"fmt"
	"strings"

	"github.com/inkwell/backend/internal/domain/shared"
)

// isbnBodyLength is the number of digits that precede the check digit in an
// ISBN-13.
const isbnBodyLength = 12

// ValidBlockSizes are the block sizes a publisher prefix can be expanded
// into. Each size corresponds to the number of sequence digits appended to
// the prefix.
var ValidBlockSizes = []int64{10, 100, 1000, 10000, 100000, 1000000}

// IsValidBlockSize reports whether size is one of the allowed block sizes
func IsValidBlockSize(size int64) bool {
	for _, s := range ValidBlockSizes {
		if s == size {
			return true
		}
	}
	return false
}

// ValidatePrefix checks that a publisher prefix is 7-12 digits and carries a
// Bookland EAN prefix (978 or 979).
func ValidatePrefix(prefix string) error {
	if len(prefix) < 7 || len(prefix) > 12 {
		return shared.NewValidationError("INVALID_ISBN_PREFIX", fmt.Sprintf("ISBN prefix must be 7-12 digits, got %d", len(prefix)))
	}
	if !strings.HasPrefix(prefix, "978") && !strings.HasPrefix(prefix, "979") {
		return shared.NewValidationError("INVALID_ISBN_PREFIX", "ISBN prefix must start with 978 or 979")
	}
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return shared.NewValidationError("INVALID_ISBN_PREFIX", "ISBN prefix must contain only digits")
		}
	}
	return nil
}

// ValidateBlock checks that a prefix and block size together describe a
// generatable block. Sequence numbers are zero-padded to fill the 12 digits
// ahead of the check digit, so the block cannot exceed the prefix's remaining
// capacity.
func ValidateBlock(prefix string, blockSize int64) error {
	if err := ValidatePrefix(prefix); err != nil {
		return err
	}
	if !IsValidBlockSize(blockSize) {
		return shared.NewValidationError("INVALID_BLOCK_SIZE", fmt.Sprintf("Block size %d is not one of the allowed sizes", blockSize))
	}
	if blockSize > prefixCapacity(prefix) {
		return shared.NewValidationError(
			"BLOCK_EXCEEDS_PREFIX_CAPACITY",
			fmt.Sprintf("Prefix of %d digits leaves room for %d ISBNs, cannot carry a block of %d", len(prefix), prefixCapacity(prefix), blockSize),
		)
	}
	return nil
}

// sequenceWidth is the zero-padded width of the sequence number for a prefix
func sequenceWidth(prefix string) int {
	return isbnBodyLength - len(prefix)
}

// prefixCapacity is the number of distinct ISBNs a prefix can ever produce
func prefixCapacity(prefix string) int64 {
	capacity := int64(1)
	for i := 0; i < sequenceWidth(prefix); i++ {
		capacity *= 10
	}
	return capacity
}

// CheckDigit computes the ISBN-13 check digit for a 12-digit body: digits are
// weighted 1,3,1,3,... and summed; the check digit is the distance from the
// sum to the next multiple of 10.
func CheckDigit(body string) (byte, error) {
	if len(body) != isbnBodyLength {
		return 0, shared.NewValidationError("INVALID_ISBN_BODY", fmt.Sprintf("ISBN body must be %d digits, got %d", isbnBodyLength, len(body)))
	}

	sum := 0
	for i := 0; i < isbnBodyLength; i++ {
		d := body[i]
		if d < '0' || d > '9' {
			return 0, shared.NewValidationError("INVALID_ISBN_BODY", "ISBN body must contain only digits")
		}
		weight := 1
		if i%2 == 1 {
			weight = 3
		}
		sum += weight * int(d-'0')
	}

	check := (10 - sum%10) % 10
	return byte('0' + check), nil
}

// ISBNAt returns the ISBN-13 at a sequence index within a block. Index is
// zero-based and must be below the block size.
func ISBNAt(prefix string, blockSize int64, index int64) (string, error) {
	if err := ValidateBlock(prefix, blockSize); err != nil {
		return "", err
	}
	if index < 0 || index >= blockSize {
		return "", shared.NewValidationError("ISBN_INDEX_OUT_OF_RANGE", fmt.Sprintf("Index %d out of range for block of %d", index, blockSize))
	}

	body := fmt.Sprintf("%s%0*d", prefix, sequenceWidth(prefix), index)
	check, err := CheckDigit(body)
	if err != nil {
		return "", err
	}
	return body + string(check), nil
}

// GenerateISBNs enumerates the block's ISBNs from startIndex onward, calling
// yield for each. The enumeration itself is stateless: a retry after failure
// passes the number of ISBNs already persisted as startIndex and the
// remainder of the block is produced without re-emitting completed work.
// A non-nil error from yield stops the run and is returned as is.
func GenerateISBNs(prefix string, blockSize, startIndex int64, yield func(index int64, isbn string) error) error {
	if err := ValidateBlock(prefix, blockSize); err != nil {
		return err
	}
	if startIndex < 0 || startIndex > blockSize {
		return shared.NewValidationError("ISBN_INDEX_OUT_OF_RANGE", fmt.Sprintf("Start index %d out of range for block of %d", startIndex, blockSize))
	}

	width := sequenceWidth(prefix)
	for i := startIndex; i < blockSize; i++ {
		body := fmt.Sprintf("%s%0*d", prefix, width, i)
		check, err := CheckDigit(body)
		if err != nil {
			return err
		}
		if err := yield(i, body+string(check)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateISBN13 checks a full 13-digit ISBN's check digit
func ValidateISBN13(isbn string) error {
	if len(isbn) != isbnBodyLength+1 {
		return shared.NewValidationError("INVALID_ISBN", fmt.Sprintf("ISBN-13 must be 13 digits, got %d", len(isbn)))
	}
	check, err := CheckDigit(isbn[:isbnBodyLength])
	if err != nil {
		return err
	}
	if isbn[isbnBodyLength] != check {
		return shared.NewValidationError("INVALID_ISBN_CHECK_DIGIT", fmt.Sprintf("ISBN %s has check digit %c, expected %c", isbn, isbn[isbnBodyLength], check))
	}
	return nil
}
