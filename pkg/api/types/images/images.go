package images

// Info is an image registered in a dataset.
type Info struct {
	Id        int    `json:"id"`
	Name      string `json:"name"`
	DatasetId int    `json:"datasetId"`
	Hash      string `json:"hash,omitempty"`
	Link      string `json:"link,omitempty"`
}

// Ids returns ids of images, in the order of the given slice.
func Ids(infos []Info) []int {
	ids := make([]int, len(infos))
	for nth, i := range infos {
		ids[nth] = i.Id
	}
	return ids
}

// Names returns names of images, in the order of the given slice.
func Names(infos []Info) []string {
	names := make([]string, len(infos))
	for nth, i := range infos {
		names[nth] = i.Name
	}
	return names
}

// Page is a page of a paginated listing.
type Page[T any] struct {
	Total      int `json:"total"`
	PagesCount int `json:"pagesCount"`
	Entities   []T `json:"entities"`
}
