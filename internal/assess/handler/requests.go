package handler

import (
	"encoding/base64"
	"strings"

	"eligo/pkg/derrors"
)

// maxDocumentBytes bounds the decoded document size (10 MiB).
const maxDocumentBytes = 10 << 20

// AssessRequest is the HTTP request body for POST /v1/assessments.
type AssessRequest struct {
	ApplicantID    string `json:"applicant_id"`
	DocumentBase64 string `json:"document_base64"`

	// Decoded by Validate.
	document []byte
}

// Validate validates and decodes the request. Implements the Validatable
// interface for httputil.DecodeAndPrepare.
func (r *AssessRequest) Validate() error {
	r.ApplicantID = strings.TrimSpace(r.ApplicantID)
	if r.ApplicantID == "" {
		return derrors.New(derrors.CodeValidation, "applicant_id is required")
	}
	if len(r.ApplicantID) > 64 {
		return derrors.New(derrors.CodeValidation, "applicant_id must be at most 64 characters")
	}
	if r.DocumentBase64 == "" {
		return derrors.New(derrors.CodeValidation, "document_base64 is required")
	}

	document, err := base64.StdEncoding.DecodeString(r.DocumentBase64)
	if err != nil {
		return derrors.New(derrors.CodeValidation, "document_base64 is not valid base64")
	}
	if len(document) > maxDocumentBytes {
		return derrors.New(derrors.CodeValidation, "document exceeds the 10MB limit")
	}
	r.document = document
	return nil
}

// Document returns the decoded document bytes.
func (r *AssessRequest) Document() []byte {
	return r.document
}
