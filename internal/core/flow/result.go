package flow

import "errors"

var ErrUnknownStep = errors.New("unknown flow step")

type ResultType string

const (
	RESULT_TYPE_FORM         ResultType = "form"
	RESULT_TYPE_ABORT        ResultType = "abort"
	RESULT_TYPE_CREATE_ENTRY ResultType = "create_entry"
)

const (
	SOURCE_USER    = "user"
	SOURCE_SSDP    = "ssdp"
	SOURCE_IMPORT  = "import"
	SOURCE_OPTIONS = "options"
)

const (
	REASON_ALREADY_CONFIGURED  = "already_configured"
	REASON_ALREADY_IN_PROGRESS = "already_in_progress"
	REASON_NOT_SUPPORTED       = "not_supported"
	REASON_CANNOT_CONNECT      = "cannot_connect"
)

// Result is what a step hands back: a form to fill, an abort or a new entry.
type Result struct {
	Type                    ResultType        `json:"type"`
	FlowID                  string            `json:"flow_id"`
	Handler                 string            `json:"handler"`
	StepID                  string            `json:"step_id,omitempty"`
	Schema                  *Schema           `json:"data_schema,omitempty"`
	Errors                  map[string]string `json:"errors,omitempty"`
	DescriptionPlaceholders map[string]string `json:"description_placeholders,omitempty"`
	Reason                  string            `json:"reason,omitempty"`
	Title                   string            `json:"title,omitempty"`
	Data                    map[string]any    `json:"data,omitempty"`
	EntryID                 string            `json:"entry_id,omitempty"`
}

// Done reports whether the flow ends with this result.
func (r *Result) Done() bool {
	return r.Type == RESULT_TYPE_ABORT || r.Type == RESULT_TYPE_CREATE_ENTRY
}

// Progress describes a live config flow waiting on input.
type Progress struct {
	FlowID  string  `json:"flow_id"`
	Handler string  `json:"handler"`
	Context Context `json:"context"`
	StepID  string  `json:"step_id"`
	Last    *Result `json:"last_result"`
}
