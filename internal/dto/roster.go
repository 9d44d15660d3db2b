package dto

// RosterFormat enumerates supported roster export encodings.
type RosterFormat string

const (
	RosterFormatCSV RosterFormat = "csv"
	RosterFormatPDF RosterFormat = "pdf"
)

// RosterFile is a rendered class roster ready to be streamed to the client.
type RosterFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
