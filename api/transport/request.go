package transport

// SignUpRequest registers a new account.
type SignUpRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"display_name"`
}

// SignInRequest exchanges credentials for a token. TTL is in seconds.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TTL      int    `json:"ttl"`
}

// RefreshRequest extends the caller's session. TTL is in seconds.
type RefreshRequest struct {
	TTL int `json:"ttl"`
}

type EndSessionRequest struct {
	Completed *bool `json:"completed"`
}

type ProofRequest struct {
	Ref string `json:"ref"`
}

type ReplaceProofsRequest struct {
	Refs []string `json:"refs"`
}

// UploadProofRequest carries an image either as a data URL or as bare base64.
type UploadProofRequest struct {
	Data        string `json:"data"`
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
}

type ProfileUpdateRequest struct {
	DisplayName *string `json:"display_name"`
}
