package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// DocumentType discriminates extraction payloads stored on queue entries.
type DocumentType string

const (
	DocumentLabData   DocumentType = "lab_data"
	DocumentPermitPDF DocumentType = "permit_pdf"
	DocumentDMR       DocumentType = "dmr"
)

// PayloadVersion is the current envelope version written by the parser.
const PayloadVersion = 1

// Envelope is the tagged wrapper around every extraction payload.
type Envelope struct {
	DocumentType DocumentType    `json:"document_type"`
	Version      int             `json:"version"`
	Data         json.RawMessage `json:"data"`
}

// NewLabDataEnvelope marshals lab data into a tagged envelope.
func NewLabDataEnvelope(d *ExtractedLabData) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal lab data")
	}
	env, err := json.Marshal(Envelope{DocumentType: DocumentLabData, Version: PayloadVersion, Data: data})
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal envelope")
	}
	return env, nil
}

// DecodeLabData converts a stored extraction payload into ExtractedLabData.
// Payloads of other document types are rejected explicitly.
func DecodeLabData(raw []byte) (*ExtractedLabData, error) {
	if len(raw) == 0 {
		return nil, eris.New("model: empty extraction payload")
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, eris.Wrap(err, "model: decode envelope")
	}

	switch env.DocumentType {
	case DocumentLabData:
		if env.Version > PayloadVersion {
			return nil, eris.Errorf("model: unsupported lab_data payload version %d", env.Version)
		}
		var d ExtractedLabData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, eris.Wrap(err, "model: decode lab data")
		}
		return &d, nil
	case DocumentPermitPDF, DocumentDMR:
		return nil, eris.Errorf("model: %s payloads cannot be imported as lab data", env.DocumentType)
	case "":
		return nil, eris.New("model: extraction payload has no document_type")
	default:
		return nil, eris.Errorf("model: unknown document type %q", env.DocumentType)
	}
}
