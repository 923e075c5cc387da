package tasks

const (
	FieldStarted         = "data.started"
	FieldFinished        = "data.finished"
	FieldMessage         = "data.message"
	FieldProgress        = "data.progress"
	FieldProgressCurrent = "data.progressCurrent"
	FieldProgressTotal   = "data.progressTotal"

	FieldResultProject           = "data.resultProject"
	FieldResultProjectId         = "data.resultProjectId"
	FieldResultProjectPreviewUrl = "data.resultProjectPreviewUrl"
)

// Field is an update of a field in the state document of a task.
type Field struct {
	// dot separated path to the field. e.g. "data.progress"
	Field string `json:"field"`

	Payload any `json:"payload"`
}
