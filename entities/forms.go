package entities

// ContactForm is the payload of the contact-us submission.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ReviewForm is the payload of the rating/review submission. Rating is
// mandatory (1-5); everything else is optional.
type ReviewForm struct {
	ReviewText       string `json:"reviewText"`
	Rating           int    `json:"rating"`
	UserProfileImage string `json:"userProfileImage,omitempty"`
	UserName         string `json:"userName,omitempty"`
	Location         string `json:"location,omitempty"`
}

// SubmissionResult is the common acknowledgement shape of the contact and
// review collaborators.
type SubmissionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
