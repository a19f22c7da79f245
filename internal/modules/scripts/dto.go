package scripts

type SubmitScriptRequest struct {
	Title   string `json:"title" binding:"required"`
	Logline string `json:"logline"`
	Genre   string `json:"genre"`
}

type SetCoverRequest struct {
	URL string `json:"url" binding:"required"`
}
