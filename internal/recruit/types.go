package recruit

// JobStatus is the publication state of a job posting.
type JobStatus string

const (
	JobStatusOpen   JobStatus = "open"
	JobStatusDraft  JobStatus = "draft"
	JobStatusClosed JobStatus = "closed"
)

// ApplicationStatus is the pipeline stage of an application.
type ApplicationStatus string

const (
	ApplicationApplied      ApplicationStatus = "applied"
	ApplicationInReview     ApplicationStatus = "in_review"
	ApplicationInterviewing ApplicationStatus = "interviewing"
	ApplicationOffered      ApplicationStatus = "offered"
	ApplicationHired        ApplicationStatus = "hired"
	ApplicationRejected     ApplicationStatus = "rejected"
	ApplicationWithdrawn    ApplicationStatus = "withdrawn"
)

var applicationStatuses = map[ApplicationStatus]string{
	ApplicationApplied:      "Postulado",
	ApplicationInReview:     "En revisión",
	ApplicationInterviewing: "Entrevistando",
	ApplicationOffered:      "Ofertado",
	ApplicationHired:        "Contratado",
	ApplicationRejected:     "Rechazado",
	ApplicationWithdrawn:    "Retirado",
}

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	_, ok := applicationStatuses[s]
	return ok
}

// Label returns the display label.
func (s ApplicationStatus) Label() string {
	if label, ok := applicationStatuses[s]; ok {
		return label
	}
	return string(s)
}

// AIRecommendation is the upstream scoring verdict.
type AIRecommendation string

const (
	RecommendationStrongFit      AIRecommendation = "strong_fit"
	RecommendationGoodFit        AIRecommendation = "good_fit"
	RecommendationNeutral        AIRecommendation = "neutral"
	RecommendationWeakFit        AIRecommendation = "weak_fit"
	RecommendationNotRecommended AIRecommendation = "not_recommended"
)

// UserInfo is the /auth/me payload.
type UserInfo struct {
	Email        string `json:"email"`
	IsNewAccount *bool  `json:"is_new_account,omitempty"`
}

type EmailIngestToken struct {
	Token  string `json:"token"`
	Active bool   `json:"active"`
}

// Job is the list view of a posting.
type Job struct {
	ID               string           `json:"id"`
	AreaID           string           `json:"area_id"`
	AreaName         string           `json:"area_name"`
	Role             string           `json:"role"`
	Status           JobStatus        `json:"status"`
	EmailIngestToken EmailIngestToken `json:"email_ingest_token"`
}

// JobDetails is the full posting.
type JobDetails struct {
	ID                 string           `json:"id"`
	CompanyID          string           `json:"company_id"`
	AreaID             string           `json:"area_id"`
	AreaName           string           `json:"area_name"`
	Role               string           `json:"role"`
	MinExperienceYears int              `json:"min_experience_years"`
	MinEducation       string           `json:"min_education"`
	RequiredSkills     []string         `json:"required_skills"`
	LocationType       string           `json:"location_type"`
	LocationCountry    *string          `json:"location_country"`
	LocationCity       *string          `json:"location_city"`
	SalaryMin          *float64         `json:"salary_min"`
	SalaryMax          *float64         `json:"salary_max"`
	Observations       *string          `json:"observations"`
	Status             JobStatus        `json:"status"`
	AIStrictMode       int              `json:"ai_strict_mode"`
	CreatedAt          string           `json:"created_at"`
	UpdatedAt          string           `json:"updated_at"`
	EmailIngestToken   EmailIngestToken `json:"email_ingest_token"`
}

// JobInput is the create/update payload for a posting.
type JobInput struct {
	Area               string    `json:"area"`
	Role               string    `json:"role"`
	MinExperienceYears int       `json:"min_experience_years"`
	MinEducation       string    `json:"min_education"`
	RequiredSkills     []string  `json:"required_skills"`
	LocationType       string    `json:"location_type"`
	LocationCountry    string    `json:"location_country"`
	LocationCity       string    `json:"location_city"`
	SalaryMin          *float64  `json:"salary_min,omitempty"`
	SalaryMax          *float64  `json:"salary_max,omitempty"`
	Observations       string    `json:"observations,omitempty"`
	Status             JobStatus `json:"status"`
	AIStrictMode       int       `json:"ai_strict_mode"`
}

type JobArea struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
	Order     int    `json:"order"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// JobAreaInput is the create/update payload for an area.
type JobAreaInput struct {
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
	Order    *int   `json:"order,omitempty"`
}

type Candidate struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Phone        *string `json:"phone"`
	Location     *string `json:"location"`
	Country      *string `json:"country"`
	LinkedInURL  *string `json:"linkedin_url"`
	PortfolioURL *string `json:"portfolio_url"`
	GithubURL    *string `json:"github_url"`
	WebsiteURL   *string `json:"website_url"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// ApplicationCandidate is the candidate summary embedded in an application.
type ApplicationCandidate struct {
	ID        string  `json:"id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
	Location  *string `json:"location"`
	Country   *string `json:"country"`
}

type Application struct {
	ID                    string                `json:"id"`
	CandidateID           string                `json:"candidate_id"`
	JobID                 string                `json:"job_id"`
	Status                ApplicationStatus     `json:"status"`
	Source                string                `json:"source"`
	AppliedAt             string                `json:"applied_at"`
	RejectedReason        *string               `json:"rejected_reason"`
	CreatedAt             string                `json:"created_at"`
	UpdatedAt             string                `json:"updated_at"`
	AIScore               *float64              `json:"ai_score"`
	AIRecommendation      *AIRecommendation     `json:"ai_recommendation"`
	AISummary             *string               `json:"ai_summary"`
	AIStrengths           []string              `json:"ai_strengths"`
	AIWeaknesses          []string              `json:"ai_weaknesses"`
	AIKeySkillsMatch      []string              `json:"ai_key_skills_match"`
	AIMissingRequirements []string              `json:"ai_missing_requirements"`
	AIEvaluatedAt         *string               `json:"ai_evaluated_at"`
	Candidate             *ApplicationCandidate `json:"candidate"`
}

// ForwardingJob is the job summary embedded in a forwarding confirmation.
type ForwardingJob struct {
	ID     string    `json:"id"`
	Role   string    `json:"role"`
	Status JobStatus `json:"status"`
}

type ForwardingConfirmation struct {
	ID                 string         `json:"id"`
	ConnectedEmailID   *string        `json:"connected_email_id"`
	JobID              *string        `json:"job_id"`
	Job                *ForwardingJob `json:"job"`
	Provider           string         `json:"provider"`
	ConfirmationURL    string         `json:"confirmation_url"`
	ReceivedAt         string         `json:"received_at"`
	ConfirmedAt        *string        `json:"confirmed_at"`
	ForwardingVerified *string        `json:"forwarding_verified"`
}

// EmailForwardingStatus is either "verified" or
// "pending_provider_confirmation" with the provider's confirmation link.
type EmailForwardingStatus struct {
	Status          string `json:"status"`
	Provider        string `json:"provider,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

// Verified reports whether forwarding is active.
func (s EmailForwardingStatus) Verified() bool {
	return s.Status == "verified"
}
