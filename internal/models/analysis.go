package models

// Issue is a single formatting or content problem reported by the analysis service.
type Issue struct {
	Type        string `json:"type" msgpack:"type"`
	Description string `json:"description" msgpack:"description"`
}

// AnalysisResult is the structured report returned for a submitted manuscript.
type AnalysisResult struct {
	Title    string   `json:"title" msgpack:"title"`
	Keywords []string `json:"keywords" msgpack:"keywords"`
	Issues   []Issue  `json:"issues" msgpack:"issues"`
}

// KeywordList returns the keywords, treating an absent list as empty.
func (a *AnalysisResult) KeywordList() []string {
	if a == nil || a.Keywords == nil {
		return []string{}
	}
	return a.Keywords
}

// IssueList returns the issues, treating an absent list as empty.
func (a *AnalysisResult) IssueList() []Issue {
	if a == nil || a.Issues == nil {
		return []Issue{}
	}
	return a.Issues
}

// HasIssues reports whether at least one issue was returned.
func (a *AnalysisResult) HasIssues() bool {
	return len(a.IssueList()) > 0
}

// UploadResponse is the body of a successful POST /upload on the analysis service.
type UploadResponse struct {
	FileID           string          `json:"file_id,omitempty" msgpack:"fileId,omitempty"`
	OriginalFilename string          `json:"original_filename,omitempty" msgpack:"originalFilename,omitempty"`
	Analysis         *AnalysisResult `json:"analysis" msgpack:"analysis"`
	DownloadURL      string          `json:"download_url" msgpack:"downloadUrl"`
}
