package dto

// ReconcileRequest is the body of POST /reconciliations.
// Orders and Items are decoded as-is and validated as record lists by the handler.
type ReconcileRequest struct {
	Orders    any    `json:"orders" binding:"required"`
	Items     any    `json:"items"`
	StartDate string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// SyncRequest is the body of POST /reconciliations/sync
type SyncRequest struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
}

// KeywordQuery filters session lines
type KeywordQuery struct {
	Keyword string `form:"keyword" binding:"max=200"`
}

// ReportQuery limits report rankings
type ReportQuery struct {
	TopN int `form:"top_n" binding:"omitempty,min=1,max=1000"`
}

// RunListQuery limits the run history listing
type RunListQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}
