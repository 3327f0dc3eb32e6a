package model

import "time"

// CreateSubmissionRequest models one vendor product intake request as posted
// by the messaging bot.
type CreateSubmissionRequest struct {
	Sender      string            `json:"sender" validate:"required"`
	Description string            `json:"description" validate:"required"`
	Vendor      string            `json:"vendor"`
	Images      []SubmissionImage `json:"images" validate:"required,min=1,dive"`
}

// SubmissionImage carries one base64-encoded image payload.
type SubmissionImage struct {
	Filename string `json:"filename" validate:"required"`
	Base64   string `json:"base64" validate:"required"`
	Mimetype string `json:"mimetype"`
}

// DefaultVendor is the sentinel used when the bot has no active vendor.
const DefaultVendor = "DEFAULT"

// Submission is a validated, immutable intake request. Built once by the
// pipeline and persisted as history; never mutated afterwards.
type Submission struct {
	Sender      string
	Description string
	Vendor      string
	Images      []SubmissionImage
	ReceivedAt  time.Time
}

// ImageFilenames returns the ordered filenames, as stored in history.
func (s *Submission) ImageFilenames() []string {
	names := make([]string, 0, len(s.Images))
	for _, img := range s.Images {
		names = append(names, img.Filename)
	}
	return names
}
