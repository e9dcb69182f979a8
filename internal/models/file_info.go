package models

// DocxContentType is the only MIME type accepted for upload.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// SelectedFile is a file chosen by the user, held in memory until reset or replaced.
type SelectedFile struct {
	Name        string `json:"name" msgpack:"name"`
	ContentType string `json:"contentType" msgpack:"contentType"`
	Size        int64  `json:"size" msgpack:"size"`
	Data        []byte `json:"-" msgpack:"-"`
}

// IsDocx reports whether the declared content type is exactly the DOCX type.
func (f *SelectedFile) IsDocx() bool {
	return f != nil && f.ContentType == DocxContentType
}
