package mock

import (
	"time"

	"github.com/studiowebux/postcli/internal/types"
)

// Response messages of the development backend
const (
	msgMissingCredentials = "Username and password are required"
	msgUserExists         = "User already exists"
	msgRegistered         = "User registered successfully"
	msgInvalidCredentials = "Invalid credentials"
	msgLoggedIn           = "Login successful"
	msgNoToken            = "No token provided"
	msgInvalidToken       = "Invalid token"
	msgURLRequired        = "URL is required"
)

// user is an account held in memory
type user struct {
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// record is one stored history entry and its owner
type record struct {
	Owner   string
	Entry   types.HistoryEntry
	Created time.Time
}

// messageBody is the payload of auth routes and their errors
type messageBody struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// errorBody is the error payload of the proxy route
type errorBody struct {
	Error string `json:"error"`
}
