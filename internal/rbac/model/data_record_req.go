package model

type DataRecordReq struct {
	Data map[string]any `json:"data"`
}

func (r *DataRecordReq) Validate() error {
	if r.Data == nil {
		return badRequest("Data is required.")
	}
	return nil
}

// DataRecordList is the paginated listing of one resource type's records.
type DataRecordList struct {
	Results    []*DataRecord `json:"results"`
	Pagination Pagination    `json:"pagination"`
	Model      *ResourceType `json:"model"`
}
