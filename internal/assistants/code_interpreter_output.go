package assistants

import (
	"encoding/json"
)

// CodeInterpreterOutputType is the discriminator of CodeInterpreterOutput.
type CodeInterpreterOutputType string

const (
	CodeInterpreterOutputTypeLogs  CodeInterpreterOutputType = "logs"
	CodeInterpreterOutputTypeImage CodeInterpreterOutputType = "image"
)

// CodeInterpreterOutput is one item produced by a code interpreter call.
// Implemented by *LogsOutput and *ImageOutput.
type CodeInterpreterOutput interface {
	Type() CodeInterpreterOutputType
	isCodeInterpreterOutput()
}

var (
	_ CodeInterpreterOutput = (*LogsOutput)(nil)
	_ CodeInterpreterOutput = (*ImageOutput)(nil)
)

// LogsOutput is text written by the interpreter.
type LogsOutput struct {
	Logs string
}

func (*LogsOutput) Type() CodeInterpreterOutputType { return CodeInterpreterOutputTypeLogs }
func (*LogsOutput) isCodeInterpreterOutput()        {}

func (o *LogsOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type CodeInterpreterOutputType `json:"type"`
		Logs string                    `json:"logs"`
	}{
		Type: CodeInterpreterOutputTypeLogs,
		Logs: o.Logs,
	})
}

// ImageOutput references an image file generated by the interpreter.
type ImageOutput struct {
	FileID string
}

func (*ImageOutput) Type() CodeInterpreterOutputType { return CodeInterpreterOutputTypeImage }
func (*ImageOutput) isCodeInterpreterOutput()        {}

type imagePayload struct {
	FileID string `json:"file_id"`
}

func (o *ImageOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  CodeInterpreterOutputType `json:"type"`
		Image imagePayload              `json:"image"`
	}{
		Type:  CodeInterpreterOutputTypeImage,
		Image: imagePayload{FileID: o.FileID},
	})
}

func decodeCodeInterpreterOutput(path string, data []byte) (CodeInterpreterOutput, error) {
	obj, err := parseObject(path, data)
	if err != nil {
		return nil, err
	}

	tag, err := discriminator(obj, path)
	if err != nil {
		return nil, err
	}

	switch CodeInterpreterOutputType(tag) {
	case CodeInterpreterOutputTypeLogs:
		// logs is the one variant whose payload is a string rather than an object
		logs, err := stringField(obj, path, tag)
		if err != nil {
			return nil, err
		}
		return &LogsOutput{Logs: logs}, nil

	case CodeInterpreterOutputTypeImage:
		payload, err := variantObject(obj, path, tag)
		if err != nil {
			return nil, err
		}
		payloadPath := joinPath(path, tag)
		if err := requireFields(payload, payloadPath, "file_id"); err != nil {
			return nil, err
		}
		fileID, err := stringField(payload, payloadPath, "file_id")
		if err != nil {
			return nil, err
		}
		return &ImageOutput{FileID: fileID}, nil

	default:
		return nil, &UnknownDiscriminatorError{Path: path, Tag: tag}
	}
}
