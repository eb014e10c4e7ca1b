package domain

import (
	"net/url"
	"strings"
	"time"
)

const (
	RoleCreator = "creator"
	RoleClipper = "clipper"
)

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Username      string    `json:"username"`
	Role          string    `json:"role"`
	Avatar        string    `json:"avatar,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	WebhookURL    string    `json:"webhookUrl,omitempty"`
	Rating        float64   `json:"rating"`
	TotalEarnings float64   `json:"totalEarnings"`
	TotalJobs     int       `json:"totalJobs"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PublicProfile is what other users may see: no email, no webhook.
type PublicProfile struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Username      string    `json:"username"`
	Role          string    `json:"role"`
	Avatar        string    `json:"avatar,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	Rating        float64   `json:"rating"`
	TotalEarnings float64   `json:"totalEarnings"`
	TotalJobs     int       `json:"totalJobs"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (u User) Public() PublicProfile {
	return PublicProfile{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Username:      u.Username,
		Role:          u.Role,
		Avatar:        u.Avatar,
		Bio:           u.Bio,
		Rating:        u.Rating,
		TotalEarnings: u.TotalEarnings,
		TotalJobs:     u.TotalJobs,
		CreatedAt:     u.CreatedAt,
	}
}

func ValidRole(role string) bool {
	return role == RoleCreator || role == RoleClipper
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

// Normalize trims fields and lowercases the email.
func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Username = strings.TrimSpace(r.Username)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

func (r RegisterRequest) Validate() error {
	if r.Email == "" || r.Password == "" || r.FirstName == "" || r.LastName == "" || r.Username == "" || r.Role == "" {
		return validationError("All fields are required")
	}
	if !ValidRole(r.Role) {
		return validationError("Invalid role. Must be creator or clipper")
	}
	if !strings.Contains(r.Email, "@") {
		return validationError("Invalid email address")
	}
	if len(r.Password) > MaxPasswordBytes {
		return validationError("Password must be at most %d bytes", MaxPasswordBytes)
	}
	if err := checkLength("Email", r.Email, 255); err != nil {
		return err
	}
	if err := checkLength("Username", r.Username, 50); err != nil {
		return err
	}
	if err := checkLength("First name", r.FirstName, 100); err != nil {
		return err
	}
	return checkLength("Last name", r.LastName, 100)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return validationError("Email and password are required")
	}
	return nil
}

// ProfileUpdate is a partial update; nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Username   *string `json:"username"`
	Bio        *string `json:"bio"`
	Avatar     *string `json:"avatar"`
	WebhookURL *string `json:"webhookUrl"`
}

func (u ProfileUpdate) Validate() error {
	if u.Username != nil {
		name := strings.TrimSpace(*u.Username)
		if name == "" {
			return validationError("username cannot be empty")
		}
		if err := checkLength("Username", name, 50); err != nil {
			return err
		}
	}
	if u.FirstName != nil {
		if strings.TrimSpace(*u.FirstName) == "" {
			return validationError("firstName cannot be empty")
		}
		if err := checkLength("First name", *u.FirstName, 100); err != nil {
			return err
		}
	}
	if u.LastName != nil {
		if strings.TrimSpace(*u.LastName) == "" {
			return validationError("lastName cannot be empty")
		}
		if err := checkLength("Last name", *u.LastName, 100); err != nil {
			return err
		}
	}
	if u.WebhookURL != nil && strings.TrimSpace(*u.WebhookURL) != "" {
		parsed, err := url.Parse(strings.TrimSpace(*u.WebhookURL))
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return validationError("webhookUrl must be an absolute http(s) URL")
		}
	}
	return nil
}

// Apply returns user with the non-nil fields of the update applied.
func (u ProfileUpdate) Apply(user User) User {
	if u.FirstName != nil {
		user.FirstName = strings.TrimSpace(*u.FirstName)
	}
	if u.LastName != nil {
		user.LastName = strings.TrimSpace(*u.LastName)
	}
	if u.Username != nil {
		user.Username = strings.TrimSpace(*u.Username)
	}
	if u.Bio != nil {
		user.Bio = *u.Bio
	}
	if u.Avatar != nil {
		user.Avatar = *u.Avatar
	}
	if u.WebhookURL != nil {
		user.WebhookURL = strings.TrimSpace(*u.WebhookURL)
	}
	return user
}

type CreatorStats struct {
	Role               string  `json:"role"`
	TotalJobs          int     `json:"totalJobs"`
	ActiveJobs         int     `json:"activeJobs"`
	CompletedJobs      int     `json:"completedJobs"`
	TotalBudget        float64 `json:"totalBudget"`
	TotalClipsReceived int     `json:"totalClipsReceived"`
}

type ClipperStats struct {
	Role                 string  `json:"role"`
	TotalClips           int     `json:"totalClips"`
	ApprovedClips        int     `json:"approvedClips"`
	LiveClips            int     `json:"liveClips"`
	TotalEarnings        float64 `json:"totalEarnings"`
	TotalViews           int64   `json:"totalViews"`
	TotalApplications    int     `json:"totalApplications"`
	AcceptedApplications int     `json:"acceptedApplications"`
}

type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"userId"`
	Username      string  `json:"username"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Avatar        string  `json:"avatar,omitempty"`
	Rating        float64 `json:"rating"`
	TotalEarnings float64 `json:"totalEarnings"`
	TotalJobs     int     `json:"totalJobs"`
}
