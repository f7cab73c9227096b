package royalty

// Format identifies the product format a contract rate or sales figure
// applies to. Royalty rates commonly differ per format.
type Format string

const (
	FormatPhysical  Format = "PHYSICAL"
	FormatEbook     Format = "EBOOK"
	FormatAudiobook Format = "AUDIOBOOK"
)

// IsValid checks if the format is a known Format
func (f Format) IsValid() bool {
	switch f {
	case FormatPhysical, FormatEbook, FormatAudiobook:
		return true
	}
	return false
}

// String returns the string representation of the format
func (f Format) String() string {
	return string(f)
}

// AllFormats returns all known formats in canonical order
func AllFormats() []Format {
	return []Format{FormatPhysical, FormatEbook, FormatAudiobook}
}
