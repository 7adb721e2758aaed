package service

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	domainauth "github.com/target/admin-console/internal/domain/auth"
)

// Demo user errors.
var (
	ErrDemoInvalidCredentials = errors.New("demo: invalid email or password")
	ErrDemoUserExists         = errors.New("demo: user already exists")
)

// DemoUser is a record of the in-memory demo directory.
type DemoUser struct {
	ID       int             `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Role     domainauth.Role `json:"role"`
	password string
}

// DemoLoginResult is the body returned by a successful demo login.
type DemoLoginResult struct {
	AccessToken string   `json:"access_token"`
	User        DemoUser `json:"user"`
}

// DemoRegisterRequest is the body accepted by demo registration.
type DemoRegisterRequest struct {
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     domainauth.Role `json:"role"`
}

// DemoUsers is an in-memory user list with no connection to the identity
// provider or the document store. Contents reset on restart.
type DemoUsers struct {
	mu     sync.Mutex
	users  []DemoUser
	nextID int
}

// NewDemoUsers returns a directory seeded with admin, user and intern.
func NewDemoUsers() *DemoUsers {
	return &DemoUsers{
		users: []DemoUser{
			{ID: 1, Username: "admin", Email: "admin@spaceborn.io", Role: domainauth.RoleAdmin, password: "admin123"},
			{ID: 2, Username: "user", Email: "user@spaceborn.io", Role: domainauth.RoleEmployee, password: "user123"},
			{ID: 3, Username: "intern", Email: "intern@spaceborn.io", Role: domainauth.RoleIntern, password: "intern123"},
		},
		nextID: 4,
	}
}

type demoToken struct {
	UserID int             `json:"userId"`
	Email  string          `json:"email"`
	Role   domainauth.Role `json:"role"`
}

// Login matches email and password exactly and returns a base64 JSON token.
func (d *DemoUsers) Login(email, password string) (*DemoLoginResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email != email || u.password != password {
			continue
		}
		raw, err := json.Marshal(demoToken{UserID: u.ID, Email: u.Email, Role: u.Role})
		if err != nil {
			return nil, err
		}
		return &DemoLoginResult{AccessToken: base64.StdEncoding.EncodeToString(raw), User: u}, nil
	}
	return nil, ErrDemoInvalidCredentials
}

// Register appends a user. The role defaults to employee.
func (d *DemoUsers) Register(req DemoRegisterRequest) (DemoUser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == req.Email {
			return DemoUser{}, ErrDemoUserExists
		}
	}
	role := domainauth.Role(strings.TrimSpace(string(req.Role)))
	if role == "" {
		role = domainauth.RoleEmployee
	}
	u := DemoUser{ID: d.nextID, Username: req.Username, Email: req.Email, Role: role, password: req.Password}
	d.nextID++
	d.users = append(d.users, u)
	return u, nil
}

// DecodeDemoToken reverses the encoding used by Login.
func DecodeDemoToken(tok string) (userID int, email string, role domainauth.Role, err error) {
	raw, err := base64.StdEncoding.DecodeString(tok)
	if err != nil {
		return 0, "", "", err
	}
	var t demoToken
	if err := json.Unmarshal(raw, &t); err != nil {
		return 0, "", "", err
	}
	return t.UserID, t.Email, t.Role, nil
}
