package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quizboard-service/internal/domain"
)

const (
	minPasswordLength = 8
	maxUsernameLength = 150
	maxSimilarity     = 0.7
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	nonWord         = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "sunshine": {},
	"football": {}, "baseball": {}, "welcome1": {}, "letmein1": {}, "abc12345": {},
	"trustno1": {}, "superman": {}, "princess": {}, "starwars": {}, "whatever": {},
}

// SignupRequest holds the fields needed to open an account.
type SignupRequest struct {
	Username string
	Email    string
	Password string
}

// Session is the token handed to a client together with its user.
type Session struct {
	Token string
	User  domain.User
}

// AuthService issues and checks opaque bearer tokens.
type AuthService struct {
	users  UserRepository
	tokens TokenStore
	cost   int
	now    func() time.Time
}

func NewAuthService(users UserRepository, tokens TokenStore) *AuthService {
	return &AuthService{users: users, tokens: tokens, cost: bcrypt.DefaultCost, now: time.Now}
}

// NewAuthServiceWithCost is test-only: a low bcrypt cost keeps tests fast.
func NewAuthServiceWithCost(users UserRepository, tokens TokenStore, cost int) *AuthService {
	s := NewAuthService(users, tokens)
	s.cost = cost
	return s
}

// Signup validates the request, creates the account and issues its token.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	v := &domain.ValidationError{}
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	switch {
	case username == "":
		v.Add("username", "This field is required.")
	case len(username) > maxUsernameLength:
		v.Add("username", "Ensure this field has no more than 150 characters.")
	case !usernamePattern.MatchString(username):
		v.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	default:
		taken, err := s.users.UsernameExists(ctx, username)
		if err != nil {
			return Session{}, err
		}
		if taken {
			v.Add("username", "A user with this username already exists.")
		}
	}

	if email == "" {
		v.Add("email", "This field is required.")
	} else {
		taken, err := s.users.EmailExists(ctx, email)
		if err != nil {
			return Session{}, err
		}
		if taken {
			v.Add("email", "A user with this email already exists.")
		}
	}

	for _, msg := range passwordProblems(req.Password, username, email) {
		v.Add("password", msg)
	}
	if err := v.OrNil(); err != nil {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		DateJoined:   s.now(),
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		return Session{}, err
	}
	token, err := s.tokens.Issue(ctx, user.ID, newToken())
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, User: user}, nil
}

// Login checks credentials and returns the user's token, creating one if needed.
func (s *AuthService) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return Session{}, domain.ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return Session{}, domain.ErrAccountDisabled
	}
	token, err := s.tokens.Issue(ctx, user.ID, newToken())
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, User: user}, nil
}

// Logout revokes the user's token.
func (s *AuthService) Logout(ctx context.Context, user domain.User) error {
	return s.tokens.Revoke(ctx, user.ID)
}

// Authenticate resolves a bearer token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}
	userID, err := s.tokens.Lookup(ctx, token)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrUnauthenticated
		}
		return domain.User{}, err
	}
	if !user.IsActive {
		return domain.User{}, domain.ErrAccountDisabled
	}
	return user, nil
}

func passwordProblems(password, username, email string) []string {
	var problems []string
	if len(password) < minPasswordLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && strings.Trim(password, "0123456789") == "" {
		problems = append(problems, "This password is entirely numeric.")
	}
	attributes := []struct{ name, value string }{{"username", username}, {"email address", email}}
	for _, attr := range attributes {
		if tooSimilar(password, attr.value) {
			problems = append(problems, "The password is too similar to the "+attr.name+".")
		}
	}
	return problems
}

// tooSimilar compares the password with the whole attribute and with each of
// its word parts, rejecting any character-overlap ratio of at least maxSimilarity.
// Parts much shorter than the password are skipped.
func tooSimilar(password, value string) bool {
	if password == "" || value == "" {
		return false
	}
	password = strings.ToLower(password)
	value = strings.ToLower(value)
	parts := append(nonWord.Split(value, -1), value)
	for _, part := range parts {
		if part == "" || exceedsLengthRatio(password, part) {
			continue
		}
		if overlapRatio(password, part) >= maxSimilarity {
			return true
		}
	}
	return false
}

func exceedsLengthRatio(password, part string) bool {
	pwdLen := float64(len([]rune(password)))
	partLen := float64(len([]rune(part)))
	return pwdLen >= 10*partLen && partLen < maxSimilarity/2*pwdLen
}

// overlapRatio is 2*M/T where M counts the characters the strings share
// (with multiplicity) and T is their combined length.
func overlapRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	avail := make(map[rune]int, len(rb))
	for _, r := range rb {
		avail[r]++
	}
	matches := 0
	for _, r := range ra {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(total)
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
