package models

// ChallengePayload is the client-facing part of an issued challenge. Ground
// truth never travels in it. Exactly the fields for the issuing stage are
// populated.
type ChallengePayload struct {
	// Image is the rendered challenge image for text and part stages.
	Image string `json:"image,omitempty"`
	// Images is the selection grid for the image stage.
	Images []string `json:"images,omitempty"`
	// Audio is the spoken-token reference for the voice stage.
	Audio string `json:"audio,omitempty"`
	// Category names what to select or click for image and part stages.
	Category string `json:"category,omitempty"`
}

// IssueResult is the wire shape of a challenge issuance.
type IssueResult struct {
	Stage        string            `json:"stage"`
	StageNumber  int               `json:"stage_number"`
	AttemptsLeft int               `json:"attempts_left"`
	Payload      *ChallengePayload `json:"payload,omitempty"`
	AccessDenied bool              `json:"access_denied,omitempty"`
	Message      string            `json:"message,omitempty"`
}

// SubmitResult is the wire shape of an answer submission. Exactly one of the
// flag groups is set: attempts_left+reload, stage+progress, access_granted,
// access_denied, or expired.
type SubmitResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	AttemptsLeft  *int   `json:"attempts_left,omitempty"`
	Reload        bool   `json:"reload,omitempty"`
	Stage         string `json:"stage,omitempty"`
	StageNumber   int    `json:"stage_number,omitempty"`
	Progress      bool   `json:"progress,omitempty"`
	AccessGranted bool   `json:"access_granted,omitempty"`
	AccessDenied  bool   `json:"access_denied,omitempty"`
	Expired       bool   `json:"expired,omitempty"`
}
