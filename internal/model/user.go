package model

const (
	RoleOwner  = "owner"
	RoleWorker = "worker"
)

type User struct {
	Id           string  `json:"_id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone,omitempty"`
	Role         string  `json:"role,omitempty"`
	Location     string  `json:"location,omitempty"`
	Bio          string  `json:"bio,omitempty"`
	BusinessName string  `json:"businessName,omitempty"`
	BusinessType string  `json:"businessType,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	Reviews      int     `json:"reviews,omitempty"`
}

// Worker is the applicant record the backend populates into applications.
type Worker struct {
	Id              string   `json:"_id"`
	Name            string   `json:"name"`
	Phone           string   `json:"phone,omitempty"`
	Location        string   `json:"location,omitempty"`
	Experience      string   `json:"experience,omitempty"`
	ExperienceLevel string   `json:"experienceLevel,omitempty"`
	Rating          float64  `json:"rating,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	WorkCategories  []string `json:"workCategories,omitempty"`
	WorkTypes       []string `json:"workTypes,omitempty"`
	VideoUrl        string   `json:"videoUrl,omitempty"`
	VideoUploaded   bool     `json:"videoUploaded,omitempty"`
}
