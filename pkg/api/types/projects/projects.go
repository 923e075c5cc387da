package projects

const (
	TypeImages = "images"
)

// Info is a project, as the platform reports it.
type Info struct {
	Id          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	WorkspaceId int    `json:"workspaceId"`
	Type        string `json:"type"`
	ImagesCount int    `json:"imagesCount"`

	// url of the image which represents the project.
	//
	// It can be empty for a project without images.
	ReferenceImageUrl string `json:"referenceImageUrl,omitempty"`
}

func (i Info) Equal(o Info) bool {
	return i == o
}

// Spec is a request to create a project.
type Spec struct {
	WorkspaceId int    `json:"workspaceId"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`

	// when true, the platform renames the project on name conflict
	// instead of rejecting the request.
	ChangeNameIfConflict bool `json:"changeNameIfConflict"`
}
