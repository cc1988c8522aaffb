package models

// MLoginCredentials is the body of a login request.
type MLoginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MUser is the authenticated user profile.
type MUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

// MLoginResponse is returned by a successful login.
type MLoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        MUser  `json:"user"`
}

// MApiUser is a user row of the admin listing.
type MApiUser struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	IsActive  int    `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// MUsersResponse wraps the admin user listing.
type MUsersResponse struct {
	Users []MApiUser `json:"users"`
	Total int        `json:"total"`
}

// MInviteRequest creates an invitation.
type MInviteRequest struct {
	UsernameFor   string `json:"username_for,omitempty"`
	ExpiresInDays int    `json:"expires_in_days,omitempty"`
}

// MInvite is an invitation code.
type MInvite struct {
	ID          string `json:"id"`
	InviteCode  string `json:"invite_code"`
	UsernameFor string `json:"username_for,omitempty"`
	InvitedBy   string `json:"invited_by"`
	IsUsed      bool   `json:"is_used"`
	CreatedAt   string `json:"created_at"`
	ExpiresAt   string `json:"expires_at"`
	UsedBy      string `json:"used_by,omitempty"`
	UsedAt      string `json:"used_at,omitempty"`
}

// MTickerStats summarises an upload for one ticker.
type MTickerStats struct {
	Ticker          string `json:"ticker"`
	Group           string `json:"group"`
	NewRecords      int    `json:"new_records"`
	ExistingRecords int    `json:"existing_records"`
	SkippedInvalid  int    `json:"skipped_invalid"`
	TotalInFile     int    `json:"total_in_file"`
	TotalInDBNow    int    `json:"total_in_db_now"`
}

// MUploadStats is the backend's answer to a data upload.
type MUploadStats struct {
	Message    string `json:"message"`
	Statistics struct {
		Filename               string         `json:"filename"`
		TotalSheets            int            `json:"total_sheets"`
		NewRecordsAdded        int            `json:"new_records_added"`
		ExistingRecordsSkipped int            `json:"existing_records_skipped"`
		InvalidRecordsSkipped  int            `json:"invalid_records_skipped"`
		SheetsProcessed        int            `json:"sheets_processed"`
		ProcessingDate         string         `json:"processing_date"`
		TickersDetails         []MTickerStats `json:"tickers_details"`
	} `json:"statistics"`
}

// MMessageResponse is a generic {"message": ...} backend answer.
type MMessageResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// MRegisterData is the body of a registration request.
type MRegisterData struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	InviteCode string `json:"invite_code"`
}
