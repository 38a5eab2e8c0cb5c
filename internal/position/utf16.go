package position

import (
	"math"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// UTF16ToByteOffset converts a UTF-16 code unit offset to a byte offset in a string.
// LSP positions use UTF-16 code units, but Go strings are UTF-8 byte sequences.
// This function handles surrogate pairs correctly (characters > U+FFFF count as 2 UTF-16 units).
func UTF16ToByteOffset(s string, utf16Col int) int {
	if utf16Col <= 0 {
		return 0
	}

	units := 0
	byteOffset := 0

	for byteOffset < len(s) && units < utf16Col {
		r, size := utf8.DecodeRuneInString(s[byteOffset:])
		if r == utf8.RuneError && size == 1 {
			// Invalid UTF-8 byte; treat as single unit and advance by 1 byte
			byteOffset++
			units++
			continue
		}

		// Use stdlib utf16.RuneLen to determine UTF-16 length (1 or 2 code units)
		runeUTF16Len := utf16.RuneLen(r)

		// If target falls within a surrogate pair, clamp to the start of the rune
		if runeUTF16Len == 2 && units+1 == utf16Col {
			// Stop here (clamp to code-point boundary)
			break
		}

		units += runeUTF16Len

		byteOffset += size
	}

	return byteOffset
}

// ByteOffsetToUTF16 converts a byte offset to a UTF-16 code unit offset in a string.
// This is the inverse of UTF16ToByteOffset and is useful for converting positions
// from Go's byte-based indexing to LSP's UTF-16 positions.
func ByteOffsetToUTF16(s string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(s) {
		byteOffset = len(s)
	}

	utf16Count := 0
	currentOffset := 0

	// Iterate through runes without slicing to avoid partial rune issues
	for currentOffset < byteOffset {
		r, size := utf8.DecodeRuneInString(s[currentOffset:])
		if r == utf8.RuneError && size == 0 {
			break // End of string
		}

		// Stop if decoding this rune would cross the target byteOffset
		if currentOffset+size > byteOffset {
			break
		}

		utf16Count += utf16.RuneLen(r)

		currentOffset += size
	}
	return utf16Count
}

// StringLengthUTF16 returns the length of a string in UTF-16 code units.
// This is useful for calculating ranges and validating positions.
func StringLengthUTF16(s string) int {
	utf16Count := 0
	for _, r := range s {
		utf16Count += utf16.RuneLen(r)
	}
	return utf16Count
}

// PositionAt converts a byte offset in text to a 0-based line number and
// UTF-16 code-unit column. Offsets past the end of text resolve to the end of
// the final line.
func PositionAt(text string, byteOffset int) (line, character uint32) {
	if byteOffset < 0 {
		byteOffset = 0
	}
	if byteOffset > len(text) {
		byteOffset = len(text)
	}

	lineStart := 0
	for i := 0; i < byteOffset; i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	character = ByteOffsetToUTF16Uint32(text[lineStart:], byteOffset-lineStart)
	return line, character
}

// OffsetOf converts a 0-based line number and UTF-16 code-unit column back to
// a byte offset in text. Out-of-range lines clamp to the end of text.
func OffsetOf(text string, line, character uint32) int {
	lineStart := 0
	for l := uint32(0); l < line; l++ {
		nl := strings.IndexByte(text[lineStart:], '\n')
		if nl < 0 {
			return len(text)
		}
		lineStart += nl + 1
	}
	lineEnd := len(text)
	if nl := strings.IndexByte(text[lineStart:], '\n'); nl >= 0 {
		lineEnd = lineStart + nl
	}
	return lineStart + UTF16ToByteOffset(text[lineStart:lineEnd], int(character))
}

// ByteOffsetToUTF16Uint32 is like ByteOffsetToUTF16 but returns uint32 for LSP compatibility.
// Clamps the result to valid uint32 range.
func ByteOffsetToUTF16Uint32(s string, byteOffset int) uint32 {
	result := ByteOffsetToUTF16(s, byteOffset)
	if result < 0 {
		return 0
	}
	if result > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(result)
}

// StringLengthUTF16Uint32 is like StringLengthUTF16 but returns uint32 for LSP compatibility.
// Clamps the result to valid uint32 range.
func StringLengthUTF16Uint32(s string) uint32 {
	result := StringLengthUTF16(s)
	if result < 0 {
		return 0
	}
	if result > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(result)
}
